package analysis

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-fit-analyzer/internal/db"
	"github.com/jonathan/job-fit-analyzer/internal/prompts"
)

// noProfileText is embedded in prompts when the run has no profile to compare against
const noProfileText = "No candidate profile was provided. Assess the job on its own terms and state that profile-dependent judgements cannot be made."

// BuildPrompt produces the instruction string for one section of the fit
// report. Pure and deterministic: same inputs always yield the same text.
func BuildPrompt(section string, job *db.Job, profile *db.Profile) (string, error) {
	if !ValidSection(section) {
		return "", fmt.Errorf("unknown section: %s", section)
	}

	template, err := prompts.Get("analysis.json", "section-"+section)
	if err != nil {
		return "", err
	}

	schema, err := SchemaFor(section)
	if err != nil {
		return "", err
	}

	return prompts.Format(template, map[string]string{
		"Job":     formatJob(job),
		"Profile": formatProfile(profile),
		"Schema":  schema,
	}), nil
}

// formatJob renders job fields verbatim in a fixed order
func formatJob(job *db.Job) string {
	var sb strings.Builder
	writeField(&sb, "Title", job.Title)
	writeField(&sb, "Company", job.Company)
	writeField(&sb, "Location", job.Location)
	writeField(&sb, "Seniority", job.Seniority)
	writeField(&sb, "Description", job.Description)
	writeField(&sb, "Requirements", job.Requirements)
	if len(job.Skills) > 0 {
		writeField(&sb, "Skills", strings.Join(job.Skills, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatProfile renders profile fields verbatim, or the no-profile fallback
func formatProfile(profile *db.Profile) string {
	if profile == nil {
		return noProfileText
	}

	var sb strings.Builder
	writeField(&sb, "Headline", profile.Headline)
	writeField(&sb, "Location", profile.Location)
	if profile.YearsExperience > 0 {
		writeField(&sb, "Years of experience", fmt.Sprintf("%d", profile.YearsExperience))
	}
	if len(profile.Skills) > 0 {
		writeField(&sb, "Skills", strings.Join(profile.Skills, ", "))
	}
	writeField(&sb, "Bio", profile.Bio)
	writeField(&sb, "Experience", profile.Experience)
	writeField(&sb, "Education", profile.Education)
	return strings.TrimRight(sb.String(), "\n")
}

func writeField(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteString("\n")
}
