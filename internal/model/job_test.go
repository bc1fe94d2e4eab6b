package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineRequest_Validate(t *testing.T) {
	assert.Error(t, (&PipelineRequest{}).Validate())
	assert.NoError(t, (&PipelineRequest{Prompt: "quantum computing"}).Validate())
}

func TestFutureWorkRequest_Validate(t *testing.T) {
	valid := &FutureWorkRequest{
		PriorResult: json.RawMessage(`{"answers":{}}`),
		TargetPath:  "/papers/x.pdf",
	}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&FutureWorkRequest{TargetPath: "/papers/x.pdf"}).Validate())
	assert.Error(t, (&FutureWorkRequest{PriorResult: json.RawMessage(`{}`)}).Validate())

	// Code generation only makes sense after an idea was chosen
	assert.Error(t, (&FutureWorkRequest{
		PriorResult:  json.RawMessage(`{}`),
		TargetPath:   "/papers/x.pdf",
		GenerateCode: true,
	}).Validate())
}

func TestJob_Finished(t *testing.T) {
	assert.False(t, (&Job{Status: StatusQueued}).Finished())
	assert.False(t, (&Job{Status: StatusRunning}).Finished())
	assert.True(t, (&Job{Status: StatusDone}).Finished())
	assert.True(t, (&Job{Status: StatusError}).Finished())
}
