package generate

import (
	"fmt"
	"strings"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/intent"
	"github.com/datawarta/tanya/pipeline"
)

// buildSystemPrompt describes the target collection and the rules of
// engagement. Schema-driven: field names, types and irregularity notes come
// from the descriptor, never from hardcoded collection knowledge.
func buildSystemPrompt(desc catalog.CollectionDescriptor, norm []pipeline.Stage) string {
	var b strings.Builder

	b.WriteString("You are a MongoDB aggregation expert. Generate an aggregation pipeline for a read-only analytics query.\n\n")

	fmt.Fprintf(&b, "Collection: %s (%s shape)\n", desc.Name, desc.Shape)
	if desc.Description != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", desc.Description)
	}

	b.WriteString("\nFields:\n")
	writeFieldList(&b, desc.Fields, "")

	if len(norm) > 0 {
		b.WriteString("\nNormalization stages ALREADY PREPENDED to your pipeline (do not repeat them):\n")
		b.WriteString(pipeline.Pipeline(norm).JSON())
		b.WriteString("\nAlways use the canonical fields they produce (")
		var canonicals []string
		for _, f := range desc.IrregularFields() {
			canonicals = append(canonicals, f.Canonical)
		}
		b.WriteString(strings.Join(canonicals, ", "))
		b.WriteString(") for filtering, grouping and arithmetic — never the raw irregular fields.\n")
	} else {
		b.WriteString("\nThis collection is PRE-AGGREGATED: data is already grouped and summarized. Keep the pipeline simple and use the exact field names above.\n")
	}

	b.WriteString(`
Rules:
1. Return ONLY a valid JSON array of pipeline stages.
2. Allowed stage operators: $match, $group, $project, $sort, $limit, $skip, $unwind, $addFields, $count, $sample.
3. Never use $out, $merge or any operator that writes.
4. Reference only the fields listed above or fields your own earlier stages define.
5. Use meaningful output field names.
6. Only add $limit if the question asks for a top-N.
7. For month questions ("juni", "June") filter the month field with the month number (June = 6).
`)

	return b.String()
}

func writeFieldList(b *strings.Builder, fields []catalog.FieldSpec, indent string) {
	for _, f := range fields {
		fmt.Fprintf(b, "%s- %q (%s)", indent, f.Name, f.Type)
		switch f.Irregularity {
		case catalog.IrregularMixedDate:
			fmt.Fprintf(b, " — mixed typed dates and DD/MM/YYYY strings; use canonical %q instead", f.Canonical)
		case catalog.IrregularCommaDecimal:
			fmt.Fprintf(b, " — mixed numbers and comma-decimal strings; use canonical %q instead", f.Canonical)
		}
		b.WriteString("\n")
		if len(f.Nested) > 0 {
			fmt.Fprintf(b, "%s  sub-list fields:\n", indent)
			writeFieldList(b, f.Nested, indent+"  ")
		}
	}
}

// buildUserPrompt carries the question and, on retries, the precise failure
// to correct.
func buildUserPrompt(question string, q intent.QueryIntent, prior *Feedback) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Request: %q\n", question)

	if !q.Range.IsZero() {
		b.WriteString("Explicit period: ")
		if q.Range.Month != 0 {
			fmt.Fprintf(&b, "month %d ", q.Range.Month)
		}
		if q.Range.Year != 0 {
			fmt.Fprintf(&b, "year %d", q.Range.Year)
		}
		b.WriteString("\n")
	}

	if prior != nil {
		b.WriteString("\nYour previous pipeline failed. Previous pipeline:\n")
		b.WriteString(prior.Pipeline.JSON())
		fmt.Fprintf(&b, "\nFailure: %s\n", prior.Reason)
		if prior.StageIndex >= 0 && prior.StageIndex < len(prior.Pipeline) {
			fmt.Fprintf(&b, "Offending stage (index %d): %s\n",
				prior.StageIndex, pipeline.Pipeline{prior.Pipeline[prior.StageIndex]}.JSON())
			b.WriteString("Correct ONLY that stage; keep the rest of the pipeline unchanged.\n")
		}
	}

	b.WriteString("\nRespond with the JSON array only.")
	return b.String()
}

// buildTranslationPrompt converts an Indonesian business question into plain
// English for the pipeline model, without inventing detail.
func buildTranslationPrompt(question string) string {
	return fmt.Sprintf(`Translate the following command to clear English for database/analytics queries.
Be precise and don't add information that wasn't in the original command.

Important guidelines:
- "bulan juni" = "June" or "month of June", not "per month"
- "per lokasi" = "by location" or "per location"
- Don't add years unless specifically mentioned
- Keep it simple and accurate

Command: %q

Return only the translated command, nothing else.`, question)
}
