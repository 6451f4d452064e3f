package finetune

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{
			Instruction: "Summarize the abstract of this research paper into its title.",
			Input:       fmt.Sprintf("Abstract %d.", i),
			Output:      fmt.Sprintf("Title %d", i),
		}
	}
	return out
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "mistralai/Mistral-7B-v0.1", opts.BaseModel)
	assert.Equal(t, "summarize_abstract_dataset.json", opts.Data)
	assert.Equal(t, "finetuned_mistral", opts.OutputDir)
	assert.Equal(t, 8192, opts.ModelMaxLength)
	assert.Equal(t, 5, opts.WarmupSteps)
	assert.Equal(t, 10, opts.MaxSteps)
	assert.Equal(t, 2.5e-5, opts.LearningRate)
}

func TestPrompt(t *testing.T) {
	got := Prompt(Record{Instruction: "Do the thing.", Input: "Some input.", Output: "The answer."})

	want := "Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.\n\n" +
		"### Instruction:\nDo the thing.\n\n" +
		"### Input:\nSome input.\n\n" +
		"### Response:\nThe answer."
	assert.Equal(t, want, got)
}

func TestSplitSizes(t *testing.T) {
	train, eval, err := Split(sampleRecords(5), 1)
	require.NoError(t, err)
	assert.Len(t, train, 4)
	assert.Len(t, eval, 1)

	train, eval, err = Split(sampleRecords(10), 1)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, eval, 2)
}

func TestSplitDeterministic(t *testing.T) {
	recs := sampleRecords(20)

	train1, eval1, err := Split(recs, 7)
	require.NoError(t, err)
	train2, eval2, err := Split(recs, 7)
	require.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, eval1, eval2)

	train3, _, err := Split(recs, 8)
	require.NoError(t, err)
	assert.NotEqual(t, train1, train3, "different seeds should shuffle differently")
}

func TestSplitKeepsEveryRecord(t *testing.T) {
	recs := sampleRecords(9)
	train, eval, err := Split(recs, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, recs, append(append([]Record{}, train...), eval...))
}

func TestSplitTooFew(t *testing.T) {
	_, _, err := Split(sampleRecords(4), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 5")
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := `[
    {
        "Instruction": "Summarize.",
        "Input": "An abstract.",
        "Output": "A title"
    }
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	recs, err := LoadRecords(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, Record{Instruction: "Summarize.", Input: "An abstract.", Output: "A title"}, recs[0])
}

func TestLoadRecordsMissing(t *testing.T) {
	_, err := LoadRecords(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestNewJob(t *testing.T) {
	opts := DefaultOptions()
	train, eval, err := Split(sampleRecords(10), opts.Seed)
	require.NoError(t, err)

	job := NewJob(opts, train, eval)

	assert.Equal(t, "mistralai/Mistral-7B-v0.1", job.BaseModel)
	assert.Equal(t, 8192, job.ModelMaxLength)

	assert.Equal(t, 8, job.Lora.R)
	assert.Equal(t, 16, job.Lora.Alpha)
	assert.Equal(t, 0.05, job.Lora.Dropout)
	assert.Equal(t, []string{
		"q_proj", "k_proj", "v_proj", "o_proj",
		"gate_proj", "up_proj", "down_proj", "lm_head",
	}, job.Lora.TargetModules)
	assert.Equal(t, "CAUSAL_LM", job.Lora.TaskType)

	assert.Equal(t, 2, job.Training.PerDeviceBatchSize)
	assert.Equal(t, 4, job.Training.GradAccumSteps)
	assert.Equal(t, 10, job.Training.LoggingSteps)
	assert.Equal(t, 10, job.Training.SaveSteps)
	assert.Equal(t, 17, job.Training.EvalSteps)
	assert.True(t, job.Training.BF16)

	assert.Len(t, job.TrainPrompts, 8)
	assert.Len(t, job.EvalPrompts, 2)
	assert.True(t, strings.HasPrefix(job.TrainPrompts[0], "Below is an instruction"))
}
