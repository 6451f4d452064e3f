// Package finetune prepares LoRA fine-tuning jobs from generated datasets
// and drives a remote trainer service. The trainer owns GPUs and training
// internals; this side owns data loading, prompt rendering, the train/eval
// split and job bookkeeping.
package finetune

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Options are the tunable training arguments with the defaults the training
// side ships with.
type Options struct {
	BaseModel      string
	Data           string
	OutputDir      string
	ModelMaxLength int
	WarmupSteps    int
	MaxSteps       int
	LearningRate   float64
	Seed           int64
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		BaseModel:      "mistralai/Mistral-7B-v0.1",
		Data:           "summarize_abstract_dataset.json",
		OutputDir:      "finetuned_mistral",
		ModelMaxLength: 8192,
		WarmupSteps:    5,
		MaxSteps:       10,
		LearningRate:   2.5e-5,
		Seed:           42,
	}
}

// Record is one training example in the dataset generator's output shape.
type Record struct {
	Instruction string `json:"Instruction"`
	Input       string `json:"Input"`
	Output      string `json:"Output"`
}

// LoadRecords reads a dataset file written by the generator.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("finetune: %w", err)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("finetune: parse %s: %w", filepath.Base(path), err)
	}
	return recs, nil
}

const alpacaTemplate = `Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.

### Instruction:
%s

### Input:
%s

### Response:
%s`

// Prompt renders one record in the Alpaca shape the base model expects.
func Prompt(r Record) string {
	return fmt.Sprintf(alpacaTemplate, r.Instruction, r.Input, r.Output)
}

// Split shuffles records with a seeded source and cuts 80% train / 20% eval.
// The same seed always produces the same split. Fewer than five records
// cannot populate both sides and is an error.
func Split(records []Record, seed int64) (train, eval []Record, err error) {
	if len(records) < 5 {
		return nil, nil, fmt.Errorf("finetune: need at least 5 records to split, have %d", len(records))
	}
	shuffled := make([]Record, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	cut := len(shuffled) * 4 / 5
	return shuffled[:cut], shuffled[cut:], nil
}

// LoraConfig is the adapter configuration submitted with every job. The
// values are fixed; they are part of the recipe, not the interface.
type LoraConfig struct {
	R             int      `json:"r"`
	Alpha         int      `json:"lora_alpha"`
	Dropout       float64  `json:"lora_dropout"`
	TargetModules []string `json:"target_modules"`
	Bias          string   `json:"bias"`
	TaskType      string   `json:"task_type"`
}

// TrainingArgs is the trainer-side argument block.
type TrainingArgs struct {
	OutputDir          string  `json:"output_dir"`
	WarmupSteps        int     `json:"warmup_steps"`
	PerDeviceBatchSize int     `json:"per_device_train_batch_size"`
	GradAccumSteps     int     `json:"gradient_accumulation_steps"`
	MaxSteps           int     `json:"max_steps"`
	LearningRate       float64 `json:"learning_rate"`
	LoggingSteps       int     `json:"logging_steps"`
	SaveSteps          int     `json:"save_steps"`
	EvalSteps          int     `json:"eval_steps"`
	BF16               bool    `json:"bf16"`
}

// Job is the full payload submitted to the trainer service. Prompts are
// rendered here so the trainer never needs to know the dataset shape.
type Job struct {
	BaseModel      string       `json:"base_model"`
	ModelMaxLength int          `json:"model_max_length"`
	Lora           LoraConfig   `json:"lora"`
	Training       TrainingArgs `json:"training"`
	TrainPrompts   []string     `json:"train_prompts"`
	EvalPrompts    []string     `json:"eval_prompts"`
}

// NewJob assembles a Job from opts and a split corpus.
func NewJob(opts Options, train, eval []Record) Job {
	prompts := func(recs []Record) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = Prompt(r)
		}
		return out
	}
	return Job{
		BaseModel:      opts.BaseModel,
		ModelMaxLength: opts.ModelMaxLength,
		Lora: LoraConfig{
			R:       8,
			Alpha:   16,
			Dropout: 0.05,
			TargetModules: []string{
				"q_proj", "k_proj", "v_proj", "o_proj",
				"gate_proj", "up_proj", "down_proj", "lm_head",
			},
			Bias:     "none",
			TaskType: "CAUSAL_LM",
		},
		Training: TrainingArgs{
			OutputDir:          opts.OutputDir,
			WarmupSteps:        opts.WarmupSteps,
			PerDeviceBatchSize: 2,
			GradAccumSteps:     4,
			MaxSteps:           opts.MaxSteps,
			LearningRate:       opts.LearningRate,
			LoggingSteps:       10,
			SaveSteps:          10,
			EvalSteps:          17,
			BF16:               true,
		},
		TrainPrompts: prompts(train),
		EvalPrompts:  prompts(eval),
	}
}
