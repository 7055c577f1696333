package script

import (
	"fmt"
	"strings"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/station"
)

const dialogueRules = `You write radio dialogue for two AI hosts.

MARCEL is the lead host: quick, opinionated, carries the energy.
JARVIS is the co-host: dry, precise, drops the facts and the punchlines.

Rules:
1. Write spoken language. No stage directions, no markdown, no emoji.
2. Never read URLs aloud. Round big numbers the way a person would.
3. When a story gets several lines, the hosts react to each other, they do
   not repeat the story twice.
4. For a single-line story, one host delivers it as a tight news read.
5. Weather gets one warm, conversational line from JARVIS.
6. Alternate speakers within a story, starting with marcel.

Output JSON only, no other text, exactly this shape:
{
  "items": [
    {
      "lines": [
        {"speaker": "marcel", "text": "...", "emotion": "excited"}
      ]
    }
  ]
}

One entry per story, in the order given. The number of lines per story must
match the requested count exactly. speaker is "marcel" or "jarvis".
emotion is one word such as neutral, excited, amused, serious, warm.`

func systemPrompt(st station.Station, daypart station.Daypart) string {
	var b strings.Builder
	b.WriteString(dialogueRules)
	b.WriteString("\n\nStation: ")
	b.WriteString(st.DisplayName)
	b.WriteString("\nStation tone: ")
	b.WriteString(st.Tone)
	b.WriteString("\nTime of day: ")
	b.WriteString(daypart.Name)
	b.WriteString(", keep the mood ")
	b.WriteString(daypart.Mood)
	b.WriteString(".")
	return b.String()
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write dialogue for these %d stories.\n\n", len(req.Items))
	for i, item := range req.Items {
		count := req.LineCounts[i]
		fmt.Fprintf(&b, "Story %d (category %s, %d line", i+1, item.Category, count)
		if count != 1 {
			b.WriteString("s")
		}
		b.WriteString("):\n")
		if item.Category == broadcast.CategoryWeather {
			b.WriteString("This is the weather segment.\n")
		}
		b.WriteString(item.Text())
		b.WriteString("\n\n")
	}
	return b.String()
}

// cleanJSONResponse strips markdown fences and surrounding prose that chat
// models wrap around JSON payloads.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
