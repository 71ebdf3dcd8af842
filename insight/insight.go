// Package insight turns raw execution results into a business narrative.
//
// The narrative is best-effort: if the narrator model fails, the structured
// rows are still returned and the narrative is simply absent. Degraded, not
// failed.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datawarta/tanya/engine"
	"github.com/datawarta/tanya/store"
)

// DefaultMaxRows caps how many flattened rows enter the narrative prompt.
const DefaultMaxRows = 50

// Narrator is the language-model boundary for the analysis call.
type Narrator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Insight is the final artifact returned to the caller: narrative plus the
// structured result.
type Insight struct {
	Collection string           `json:"collection_used"`
	Attempts   int              `json:"attempts"`
	Rows       []store.Document `json:"rows"`
	Narrative  string           `json:"narrative,omitempty"`
}

// Generator post-processes execution results.
type Generator struct {
	narrator Narrator
	maxRows  int
	logger   *zap.SugaredLogger
}

// New creates an insight Generator. narrator may be nil, in which case every
// insight is narrative-free.
func New(narrator Narrator, maxRows int, logger *zap.SugaredLogger) *Generator {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{narrator: narrator, maxRows: maxRows, logger: logger}
}

// Summarize flattens the result rows and asks the narrator for an analysis
// in the requested language ("id" or "en"). Narrator failure degrades to an
// insight without narrative; it never fails the request.
func (g *Generator) Summarize(ctx context.Context, res *engine.Result, language string) Insight {
	out := Insight{
		Collection: res.Collection,
		Attempts:   res.Attempts,
		Rows:       res.Rows,
	}

	if g.narrator == nil || len(res.Rows) == 0 {
		return out
	}

	flat := Flatten(res.Rows)
	if len(flat) > g.maxRows {
		flat = flat[:g.maxRows]
	}

	narrative, err := g.narrator.Complete(ctx, "", buildAnalysisPrompt(res, flat, language))
	if err != nil {
		g.logger.Warnw("Narrative generation failed, returning rows without analysis",
			"collection", res.Collection, "error", err)
		return out
	}

	out.Narrative = strings.TrimSpace(narrative)
	return out
}

// buildAnalysisPrompt frames the flattened rows as a business-analysis task.
func buildAnalysisPrompt(res *engine.Result, rows []store.Document, language string) string {
	rowsJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		rowsJSON = []byte("[]")
	}

	languageLine := "Gunakan bahasa Indonesia yang baik dan benar."
	if language == "en" {
		languageLine = "Write in clear professional English."
	}

	return fmt.Sprintf(`Anda adalah seorang ahli analisis bisnis. Analisis hasil agregasi berikut dan berikan wawasan bisnis yang mendalam.

Permintaan pengguna: %q

Pipeline agregasi yang digunakan: %s

Hasil (%d baris): %s

Berikan analisis bisnis yang komprehensif meliputi:
1. Temuan utama dan tren
2. Performa terbaik dan metriknya
3. Wawasan dan implikasi bisnis
4. Rekomendasi berdasarkan data
5. Pola atau anomali yang menonjol

Tulis dalam nada profesional dan analitis yang sesuai untuk stakeholder bisnis.
Buat ringkas namun informatif (maksimal 3-5 paragraf).
%s`, res.Question, res.Pipeline.JSON(), len(rows), string(rowsJSON), languageLine)
}
