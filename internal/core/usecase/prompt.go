package usecase

import "strings"

const (
	inputOpenMarker  = "<Input_Text>"
	inputCloseMarker = "</Input_Text>"
)

const promptInstructions = `You are an AI document intelligence assistant.

TASKS:
1. Generate a concise business-friendly summary.
2. Identify the document domain (Healthcare, Legal, Finance, Insurance, Government, etc.).
3. Identify document origin/geography (India, US, EU, etc.) if possible.
4. Identify document type.
5. Decide ERP readiness.
6. Transform the data into structured JSON.

ERP READINESS RULES:
- READY: Key fields are clear and usable
- NOT_READY: Missing or unclear fields

STRICT OUTPUT FORMAT (JSON ONLY):
`

// outputSkeleton must stay valid JSON; the placeholders are string values.
const outputSkeleton = `{
  "summary": "<short summary>",
  "domain": "<Healthcare | Legal | Finance | Insurance | Other>",
  "origin": "<Country or Region or Unknown>",
  "document_type": "<Invoice | Judgment | Medical Report | Policy | Other>",
  "erp_status": "<READY | NOT_READY>",
  "transformed_data": {
    "key_points": [],
    "entities": {},
    "confidence": 0.0
  }
}`

// BuildPrompt wraps extracted content in the fixed instruction template.
func BuildPrompt(content string) string {
	var b strings.Builder
	b.Grow(len(promptInstructions) + len(outputSkeleton) + len(content) + 64)
	b.WriteString("\n")
	b.WriteString(promptInstructions)
	b.WriteString(outputSkeleton)
	b.WriteString("\n\n")
	b.WriteString(inputOpenMarker)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(inputCloseMarker)
	b.WriteString("\n")
	return b.String()
}
