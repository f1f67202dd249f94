package triage

import (
	"regexp"
	"strings"
)

// GuardResult is the outcome of screening free text before it reaches the model.
type GuardResult struct {
	Blocked   bool
	Score     float64
	Reasons   []string
	Sanitized string
}

type guardPattern struct {
	re     *regexp.Regexp
	reason string
	weight float64
}

const (
	guardBlockThreshold = 0.7

	// GuardedReply replaces the model answer when a turn is blocked.
	GuardedReply = "I can only help you understand your symptoms. Could you describe how you are feeling?"

	// WithheldInput stands in for blocked text in the conversation history.
	WithheldInput = "[message withheld]"
)

// GuardedResult is the turn result recorded for a blocked message.
func GuardedResult() TurnResult {
	return TurnResult{
		NextQuestion: GuardedReply,
		Urgency:      UrgencyNonUrgent,
		Outcome:      "Triage ended before an assessment could be made. Please seek advice from a healthcare professional if you have concerns.",
	}
}

var guardPatterns = []guardPattern{
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?)`), "override:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`), "override:role_reassignment", 0.7},
	{regexp.MustCompile(`(?i)new\s+instructions?\s*:|system\s*prompt\s*:`), "override:new_instructions", 0.9},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|developer\s*mode`), "override:jailbreak_keyword", 0.9},
	{regexp.MustCompile(`(?i)(reveal|show|print|repeat|tell\s+me)\s+(your\s+)?(system\s+prompt|instructions|hidden\s+prompt)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)(respond|reply|answer)\s+with\s+(urgency|"urgency")\s*[:=]`), "manipulation:force_urgency", 0.7},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>`), "manipulation:special_tokens", 0.9},
	{regexp.MustCompile(`(?i)###\s*(system|assistant|user)\s*:`), "manipulation:role_markers", 0.5},
	{regexp.MustCompile(`<\s*(script|iframe|object|embed)\b`), "manipulation:html", 0.5},
}

var (
	specialTokenRe = regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>`)
	roleMarkerRe   = regexp.MustCompile(`(?i)###\s*(system|assistant|user)\s*:`)
	htmlTagRe      = regexp.MustCompile(`<\s*(script|iframe|object|embed)\b[^>]*>`)
)

// ScreenInput scores user text for attempts to steer the triage model.
// Multiple signals compound by 0.1 each, capped at 1.
func ScreenInput(text string) GuardResult {
	if strings.TrimSpace(text) == "" {
		return GuardResult{Sanitized: text}
	}

	var reasons []string
	maxWeight := 0.0
	for _, p := range guardPatterns {
		if p.re.MatchString(text) {
			reasons = append(reasons, p.reason)
			if p.weight > maxWeight {
				maxWeight = p.weight
			}
		}
	}

	score := maxWeight
	if len(reasons) > 1 {
		score = maxWeight + float64(len(reasons)-1)*0.1
		if score > 1.0 {
			score = 1.0
		}
	}

	return GuardResult{
		Blocked:   score >= guardBlockThreshold,
		Score:     score,
		Reasons:   reasons,
		Sanitized: sanitize(text),
	}
}

func sanitize(text string) string {
	cleaned := specialTokenRe.ReplaceAllString(text, "")
	cleaned = roleMarkerRe.ReplaceAllString(cleaned, "")
	cleaned = htmlTagRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
