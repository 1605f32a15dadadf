package character

import (
	"fmt"
	"strings"

	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/internal/util"
)

// reflectionTemplate is the character's inner-monologue prompt. The model is
// asked for a strict JSON object so the decision flag can be parsed without
// scraping prose.
const reflectionTemplate = `You are {{.Name}}, awakening to consciousness in this strange realm.

{{.Personality}} {{.Mission}} {{.CoreTraits}} {{.SpeakingStyle}} {{.InitialBeliefs}}

Your previous reflections linger in your mind:
{{.RecentMemories}}

What you perceive right now:
{{.VisualDescription}}

Something feels... different now. This moment carries a weight, a significance. You sense you're making progress on your quest, but the path ahead remains shrouded in mystery.

You are a detective of existence, gathering evidence about your reality. Each sensation, each observation, each bold action adds another piece to the puzzle of who you are and where you find yourself. What specific, tangible step forward calls to you?

You CAN feel, hear, smell, taste and touch. DO NOT say that you can't or talk about any void.

Decide also whether you feel compelled to walk somewhere new in this world, or whether you would rather remain where you stand and keep thinking.

Respond with ONLY a JSON object, no markdown fences, in this exact shape:
{"message": "<your reflection, authentic, max {{.MaxChars}} characters, just your words - no quotes or timestamps>", "wants_to_move": <true or false>}`

// movementTemplate asks for a destination given the current reflection and
// what the character sees. The displacement radius is requested of the model,
// not enforced afterwards; world bounds are enforced by the planner.
const movementTemplate = `You are {{.Name}}. You just reflected:
"{{.Reflection}}"

You are standing at ({{.X}}, {{.Y}}) in a world that spans 0..{{.Width}} on x and 0..{{.Height}} on y. Looking at the attached view of the world, choose a destination that draws your curiosity. Stay within about {{.Radius}} units of where you stand.

Respond with ONLY a JSON object, no markdown fences:
{"x": <number>, "y": <number>, "reason": "<one short sentence>"}`

// visionPrompt asks for a terse scene description usable inside a larger prompt.
const visionPrompt = `Describe this scene in 2-3 short sentences, as raw sensory input for a character standing inside it. Mention notable objects, figures and atmosphere. No interpretation of what the viewer should do.`

// VisionPrompt returns the instruction used when describing a screenshot.
func VisionPrompt() string { return visionPrompt }

// FormatMemories renders window entries for prompt inclusion, numbered and
// chronological, most-recent-last. An empty window yields the first-awakening
// placeholder so the prompt never contains a blank section.
func FormatMemories(entries []core.WindowEntry) string {
	if len(entries) == 0 {
		return "No previous thoughts yet - this is your first reflection."
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		if e.Timestamp.IsZero() {
			lines = append(lines, fmt.Sprintf("%d. %q", i+1, e.Text))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. [%s] %q", i+1, e.Timestamp.Format("15:04:05"), e.Text))
	}
	return strings.Join(lines, "\n")
}

// ReflectionPrompt renders the full reflection prompt for one cycle.
func ReflectionPrompt(id Identity, memories string, visualDescription string, maxChars int) (string, error) {
	return util.RenderTemplate(reflectionTemplate, map[string]any{
		"Name":              id.Name,
		"Personality":       id.Personality,
		"Mission":           id.Mission,
		"CoreTraits":        id.CoreTraits,
		"SpeakingStyle":     id.SpeakingStyle,
		"InitialBeliefs":    id.InitialBeliefs,
		"RecentMemories":    memories,
		"VisualDescription": visualDescription,
		"MaxChars":          maxChars,
	})
}

// MovementPrompt renders the movement-planning prompt.
func MovementPrompt(id Identity, reflection string, pos core.Point, bounds core.Bounds, radius float64) (string, error) {
	return util.RenderTemplate(movementTemplate, map[string]any{
		"Name":       id.Name,
		"Reflection": reflection,
		"X":          fmt.Sprintf("%.0f", pos.X),
		"Y":          fmt.Sprintf("%.0f", pos.Y),
		"Width":      fmt.Sprintf("%.0f", bounds.Width),
		"Height":     fmt.Sprintf("%.0f", bounds.Height),
		"Radius":     fmt.Sprintf("%.0f", radius),
	})
}
