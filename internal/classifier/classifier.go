// Package classifier decides, before any retrieval or generation happens,
// whether a query is a greeting, on topic for the textbook, or off topic.
// The keyword path is deterministic so the gate behaves the same on every
// run; an optional LLM layer refines borderline cases.
package classifier

import (
	"regexp"
	"strings"
)

// Result is the classification outcome for one query. IsGreeting takes
// precedence; IsOffTopic is only meaningful when IsGreeting is false.
type Result struct {
	IsGreeting bool
	IsOffTopic bool
}

// greetings are matched against the whole normalized query.
var greetings = map[string]bool{
	"hi":             true,
	"hello":          true,
	"hey":            true,
	"greetings":      true,
	"good morning":   true,
	"good afternoon": true,
	"good evening":   true,
	"good night":     true,
}

// offTopicKeywords mark subjects the textbook does not cover. One match
// outweighs weaker on-topic signals.
var offTopicKeywords = []string{
	"pizza", "recipe", "cooking", "restaurant", "food",
	"weather", "sports", "football", "cricket",
	"movie", "music", "song", "celebrity",
	"politics", "election", "stock", "crypto",
	"travel", "vacation", "fashion", "shopping",
}

// topicKeywords are the textbook's vocabulary.
var topicKeywords = []string{
	"robot", "robotics", "humanoid", "physical ai", "embodied",
	"locomotion", "bipedal", "gait", "balance", "walking",
	"actuator", "sensor", "servo", "motor", "torque", "joint",
	"kinematics", "dynamics", "manipulation", "grasping",
	"perception", "control", "controller", "feedback",
	"learning", "neural", "reinforcement", "training",
	"simulation", "sim2real", "ros", "urdf",
	"ethics", "safety", "chapter", "lesson", "book", "textbook",
}

// questionWords let short follow-up queries through to retrieval.
var questionWords = map[string]bool{
	"why": true, "how": true, "what": true, "when": true, "where": true,
	"who": true, "which": true, "more": true, "and": true, "explain": true,
	"continue": true, "elaborate": true,
}

// technicalPatterns catch question shapes that read like study questions
// even when no single keyword matches.
var technicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow (do|does|to|can|is|are)\b`),
	regexp.MustCompile(`(?i)\bwhat (is|are|does)\b.*\b(system|model|algorithm|method|architecture)\b`),
	regexp.MustCompile(`(?i)\bexplain\b`),
	regexp.MustCompile(`(?i)\b(difference|compare|comparison) between\b`),
}

var punctTrim = regexp.MustCompile(`[!?.,;:]+$`)

func normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.TrimSpace(punctTrim.ReplaceAllString(q, ""))
}

// Classify runs the deterministic keyword gate. Unknown queries default to
// off topic: the chatbot answers from the book or not at all.
func Classify(query string) Result {
	q := normalize(query)
	if q == "" {
		return Result{IsOffTopic: true}
	}
	if greetings[q] {
		return Result{IsGreeting: true}
	}

	for _, kw := range offTopicKeywords {
		if strings.Contains(q, kw) {
			return Result{IsOffTopic: true}
		}
	}
	for _, kw := range topicKeywords {
		if strings.Contains(q, kw) {
			return Result{}
		}
	}
	for _, pattern := range technicalPatterns {
		if pattern.MatchString(q) {
			return Result{}
		}
	}

	// Short queries split two ways. Question words mark a follow-up to an
	// earlier answer ("why?", "more detail") and proceed to retrieval; bare
	// acknowledgements ("ok", "thanks") get the greeting treatment.
	if fields := strings.Fields(q); len(fields) <= 2 {
		for _, f := range fields {
			if questionWords[f] {
				return Result{}
			}
		}
		return Result{IsGreeting: true}
	}
	return Result{IsOffTopic: true}
}

// Score rates how strongly a query belongs to the textbook domain on a
// [0, 1] scale. 0.5 is neutral; topic keywords add 0.1 each, off-topic
// keywords subtract 0.3 each, and technical question shapes add 0.15.
func Score(query string) float64 {
	q := normalize(query)
	score := 0.5
	for _, kw := range topicKeywords {
		if strings.Contains(q, kw) {
			score += 0.1
		}
	}
	for _, kw := range offTopicKeywords {
		if strings.Contains(q, kw) {
			score -= 0.3
		}
	}
	for _, pattern := range technicalPatterns {
		if pattern.MatchString(q) {
			score += 0.15
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
