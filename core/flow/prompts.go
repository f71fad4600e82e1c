package flow

import coreconfig "github.com/m3rciful/feedbackbot/core/config"

// Prompts holds every user-facing text the conversation emits.
type Prompts struct {
	Opening     string
	AskConsent  string
	AskFeedback string
	AskMedia    string
	NeedText    string
	NeedChoice  string
	NeedMedia   string
	Completed   string
	Apology     string
}

// DefaultPrompts returns the compiled-in conversation texts.
func DefaultPrompts() Prompts {
	return Prompts{
		Opening:     "Hi! Let's collect your feedback. What's your name?",
		AskConsent:  "Nice to meet you! Would you like to attach a photo to your feedback? (yes/no)",
		AskFeedback: "Thanks! Now tell me, how was your experience?",
		AskMedia:    "Got it. Now send a photo or document to attach.",
		NeedText:    "Please send a text message.",
		NeedChoice:  "Please answer yes or no.",
		NeedMedia:   "Please send a photo or document.",
		Completed:   "Thank you! Your feedback has been saved.",
		Apology:     "Sorry, something went wrong. Please try again later.",
	}
}

// PromptsFromConfig overlays non-empty configured texts onto the defaults.
func PromptsFromConfig(pc coreconfig.PromptsConfig) Prompts {
	p := DefaultPrompts()
	if pc.Opening != "" {
		p.Opening = pc.Opening
	}
	if pc.AskConsent != "" {
		p.AskConsent = pc.AskConsent
	}
	if pc.AskFeedback != "" {
		p.AskFeedback = pc.AskFeedback
	}
	if pc.AskMedia != "" {
		p.AskMedia = pc.AskMedia
	}
	if pc.NeedText != "" {
		p.NeedText = pc.NeedText
	}
	if pc.NeedChoice != "" {
		p.NeedChoice = pc.NeedChoice
	}
	if pc.NeedMedia != "" {
		p.NeedMedia = pc.NeedMedia
	}
	if pc.Completed != "" {
		p.Completed = pc.Completed
	}
	if pc.Apology != "" {
		p.Apology = pc.Apology
	}
	return p
}
