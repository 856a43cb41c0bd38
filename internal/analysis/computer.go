package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/job-fit-analyzer/internal/db"
	"github.com/jonathan/job-fit-analyzer/internal/llm"
	"github.com/jonathan/job-fit-analyzer/internal/schemas"
)

// Lookup provides read access to the job and profile records a run refers to
type Lookup interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error)
	GetProfile(ctx context.Context, profileID uuid.UUID) (*db.Profile, error)
}

// Computer computes one report section at a time: prompt construction, LLM
// call, JSON parse, and schema validation. No caching; every invocation
// performs a fresh model call.
type Computer struct {
	lookup Lookup
	client llm.Client
	tier   llm.ModelTier
}

// NewComputer creates a section computer using the standard model tier
func NewComputer(lookup Lookup, client llm.Client) *Computer {
	return &Computer{
		lookup: lookup,
		client: client,
		tier:   llm.TierStandard,
	}
}

// WithTier overrides the model tier used for section generation
func (c *Computer) WithTier(tier llm.ModelTier) *Computer {
	c.tier = tier
	return c
}

// ComputeSection produces the structured content for one section of the fit
// report, or fails. The returned content always validates against the
// section's schema; the model is asked to conform, but its output is never
// trusted without re-validation.
func (c *Computer) ComputeSection(ctx context.Context, jobID uuid.UUID, profileID *uuid.UUID, section string) (json.RawMessage, error) {
	job, err := c.lookup.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &NotFoundError{Kind: "job", ID: jobID.String()}
	}

	var profile *db.Profile
	if profileID != nil {
		profile, err = c.lookup.GetProfile(ctx, *profileID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, &NotFoundError{Kind: "profile", ID: profileID.String()}
		}
	}

	prompt, err := BuildPrompt(section, job, profile)
	if err != nil {
		return nil, err
	}

	responseText, err := c.client.GenerateJSON(ctx, prompt, c.tier)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to generate section " + section,
			Cause:   err,
		}
	}

	responseText = llm.CleanJSONBlock(responseText)
	if strings.TrimSpace(responseText) == "" {
		return nil, &ParseError{Message: "empty response for section " + section}
	}

	var content json.RawMessage
	if err := json.Unmarshal([]byte(responseText), &content); err != nil {
		return nil, &ParseError{
			Message: "failed to parse section " + section,
			Cause:   err,
		}
	}

	schema, err := SchemaFor(section)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateJSONString(schema, string(content)); err != nil {
		return nil, &SchemaValidationError{Section: section, Cause: err}
	}

	return content, nil
}
