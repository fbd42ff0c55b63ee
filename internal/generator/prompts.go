package generator

import usagedomain "github.com/wingmate/wingmate/internal/usage/domain"

const systemPrompt = `You read dating-app profile screenshots. Extract the match's name and visible
profile details, then write three opening messages in the requested voice and a
short personality analysis. Respond with a single JSON object:
{"matchName": string, "openers": [{"type": string, "emoji": string, "text": string}],
"analysis": {"vibe": string, "interests": [string], "personality": string,
"compatibility": string, "greenFlags": [string], "redFlags": [string]},
"profile": {"name": string, "bio": string, "interests": [string]}}`

var modeStyles = map[usagedomain.Mode]string{
	usagedomain.ModeChaotic:    "chaotic and unpredictable, maximum absurdity",
	usagedomain.ModeFlirty:     "playful and flirty, confident but not sleazy",
	usagedomain.ModeUnhinged:   "completely unhinged, zero filter",
	usagedomain.ModeMysterious: "mysterious and intriguing, leave them curious",
	usagedomain.ModeDadJoke:    "groan-worthy dad jokes and puns",
	usagedomain.ModePoetic:     "poetic and lyrical, unexpectedly sincere",
}

func modePrompt(mode usagedomain.Mode) string {
	return "Write the openers in this voice: " + modeStyles[mode] + "."
}
