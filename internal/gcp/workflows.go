package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/googleapis/gax-go/v2"
)

type executionCreator interface {
	CreateExecution(ctx context.Context, req *executionspb.CreateExecutionRequest, opts ...gax.CallOption) (*executionspb.Execution, error)
	Close() error
}

// WorkflowDispatcher hands a persisted document to the analysis workflow.
// It starts an execution and does not wait for its result.
type WorkflowDispatcher struct {
	client executionCreator
	parent string
}

func NewWorkflowDispatcher(ctx context.Context, projectID, location, workflowID string) (*WorkflowDispatcher, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowDispatcher: projectID, location and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowDispatcher{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

func (d *WorkflowDispatcher) Dispatch(ctx context.Context, documentID string) error {
	payloadBytes, err := json.Marshal(map[string]string{"documentId": documentID})
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: d.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := d.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

func (d *WorkflowDispatcher) Close() error {
	return d.client.Close()
}
