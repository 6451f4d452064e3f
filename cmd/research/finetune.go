package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DlutRDSerivice/dlut-research-service/internal/finetune"
)

var finetuneCmd = &cobra.Command{
	Use:   "finetune",
	Short: "Submit a summarization fine-tune job to the trainer",
	Long: `Loads an instruction dataset, splits it 80/20 into train and eval prompts,
renders the prompt template and submits the job to the trainer configured via
RESEARCH_TRAINER_BASE_URL. Prints the job ID; with --wait, polls until the job
reaches a terminal state.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := finetune.DefaultOptions()
		opts.Data, _ = cmd.Flags().GetString("data")
		opts.BaseModel, _ = cmd.Flags().GetString("base-model")
		opts.OutputDir, _ = cmd.Flags().GetString("output-dir")
		opts.ModelMaxLength, _ = cmd.Flags().GetInt("model-max-length")
		opts.WarmupSteps, _ = cmd.Flags().GetInt("warmup-steps")
		opts.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
		opts.LearningRate, _ = cmd.Flags().GetFloat64("learning-rate")
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
		wait, _ := cmd.Flags().GetBool("wait")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		records, err := finetune.LoadRecords(opts.Data)
		if err != nil {
			slog.Error("dataset error", "err", err)
			os.Exit(1)
		}
		train, eval, err := finetune.Split(records, opts.Seed)
		if err != nil {
			slog.Error("split error", "err", err)
			os.Exit(1)
		}
		job := finetune.NewJob(opts, train, eval)

		client := finetune.NewClient(cfg.TrainerBaseURL, cfg.TrainerAPIKey)
		id, err := client.Submit(ctx, job)
		if err != nil {
			slog.Error("submit error", "err", err)
			os.Exit(1)
		}
		slog.Info("fine-tune job submitted", "job", id, "train", len(train), "eval", len(eval))
		fmt.Println(id)

		if wait {
			st, err := client.Await(ctx, id, 10*time.Second)
			if err != nil {
				slog.Error("fine-tune failed", "err", err)
				os.Exit(1)
			}
			slog.Info("fine-tune job succeeded", "job", id, "step", st.Step, "loss", st.Loss)
		}
	},
}

func init() {
	rootCmd.AddCommand(finetuneCmd)

	defaults := finetune.DefaultOptions()
	finetuneCmd.Flags().String("data", defaults.Data, "Instruction dataset JSON file")
	finetuneCmd.Flags().String("base-model", defaults.BaseModel, "Base model to fine-tune")
	finetuneCmd.Flags().String("output-dir", defaults.OutputDir, "Trainer output directory")
	finetuneCmd.Flags().Int("model-max-length", defaults.ModelMaxLength, "Tokenizer max sequence length")
	finetuneCmd.Flags().Int("warmup-steps", defaults.WarmupSteps, "Warmup steps")
	finetuneCmd.Flags().Int("max-steps", defaults.MaxSteps, "Training steps")
	finetuneCmd.Flags().Float64("learning-rate", defaults.LearningRate, "Learning rate")
	finetuneCmd.Flags().Int64("seed", defaults.Seed, "Shuffle seed for the train/eval split")
	finetuneCmd.Flags().Bool("wait", false, "Poll the trainer until the job finishes")
}
