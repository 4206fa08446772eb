// Package describe turns an image reference into a short cinematic scene
// description using a vision-capable language model. Every implementation is
// best-effort: callers are expected to substitute FallbackPrompt when a
// describer errors or returns empty content, so a degraded model never blocks
// video generation.
package describe

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxPromptChars bounds the description forwarded to the prediction service,
// which rejects overlong prompts.
const MaxPromptChars = 350

// Describer produces a natural-language cinematic description of the scene
// behind imageURL, honoring the camera-control instruction.
type Describer interface {
	Describe(ctx context.Context, imageURL, cameraControl string) (string, error)
}

// FallbackPrompt is the deterministic description used when the describer is
// unavailable. It still encodes the camera-control instruction verbatim.
func FallbackPrompt(cameraControl string) string {
	if strings.TrimSpace(cameraControl) == "" {
		cameraControl = "stationary"
	}
	return fmt.Sprintf("A realistic scene with %s camera movement and natural ambient motion.", cameraControl)
}

// Truncate bounds a prompt to max characters (runes, not bytes).
func Truncate(prompt string, max int) string {
	runes := []rune(prompt)
	if len(runes) <= max {
		return prompt
	}
	return string(runes[:max])
}

// buildInstruction is the shared model instruction for all describers.
func buildInstruction(cameraControl string) string {
	movement := strings.TrimSpace(cameraControl)
	if movement == "" {
		movement = "stationary"
	}
	label := cases.Title(language.Und).String(strings.ReplaceAll(movement, "-", " "))
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Describe this image as a single cinematic scene in at most two sentences. ")
	fmt.Fprintf(sb, "Mention the subject, the lighting and the ambient motion. ")
	fmt.Fprintf(sb, "The camera movement is: %s. ", label)
	sb.WriteString("Respond with plain text only, no markdown and no lists.")
	return sb.String()
}

// StaticDescriber always answers with the deterministic fallback. It is used
// when no vision provider is configured.
type StaticDescriber struct{}

func NewStaticDescriber() *StaticDescriber {
	return &StaticDescriber{}
}

func (s *StaticDescriber) Describe(ctx context.Context, imageURL, cameraControl string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return FallbackPrompt(cameraControl), nil
}

var _ Describer = (*StaticDescriber)(nil)
