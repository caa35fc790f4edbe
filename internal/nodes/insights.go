package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"orderboard_agent/internal/logger"
)

const insightFailureText = "An error occurred while generating insights."

// InsightGenerator produces a short natural-language summary of query results
// in the user's language. Failures never fail the request: the caller gets a
// fixed fallback sentence instead.
type InsightGenerator struct {
	model model.BaseChatModel
	now   func() time.Time
}

// NewInsightGenerator creates an insight generator backed by the given chat model.
func NewInsightGenerator(m model.BaseChatModel) *InsightGenerator {
	return &InsightGenerator{model: m, now: time.Now}
}

// Summarize generates a one-to-two sentence insight over the result rows.
// Empty input returns an empty string without a model call.
func (g *InsightGenerator) Summarize(ctx context.Context, rows []map[string]any, lang string) string {
	if len(rows) == 0 {
		return ""
	}

	intro, payload := shapeInsightInput(rows)

	body, err := sonic.ConfigDefault.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Warn().Err(err).Msg("insight payload marshal failed")
		return insightFailureText
	}

	messages := []*schema.Message{
		schema.SystemMessage(insightSystemPrompt(g.now(), lang)),
		schema.UserMessage(fmt.Sprintf("%s\n\nAnalyze these %d entries:\n%s", intro, len(rows), body)),
	}

	out, err := g.model.Generate(ctx, messages)
	if err != nil {
		logger.Warn().Err(err).Msg("insight generation call failed")
		return insightFailureText
	}

	return strings.TrimSpace(out.Content)
}

// shapeInsightInput decides between the grouped-chart and raw-order framing
// and trims raw rows down to the fields the summary cares about. Grouped data
// is recognized by every row having exactly two fields, one of them "count".
func shapeInsightInput(rows []map[string]any) (intro string, payload []map[string]any) {
	if isGroupedData(rows) {
		label := groupLabel(rows[0])
		intro = fmt.Sprintf(
			"This is grouped chart data by '%s'. Each row includes a %s and how many orders are associated with it.",
			label, label)
		return intro, rows
	}

	intro = "These are raw orders. Each entry includes due date, status, tags, customer name, and item count."
	payload = make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, map[string]any{
			"due_date":      row["due_date"],
			"status":        row["status"],
			"tags":          row["tags"],
			"customer_name": row["customer_name"],
			"items":         row["items"],
			"action_json":   row["action_json"],
		})
	}
	return intro, payload
}

func isGroupedData(rows []map[string]any) bool {
	for _, row := range rows {
		if len(row) != 2 {
			return false
		}
		if _, ok := row["count"]; !ok {
			return false
		}
	}
	return len(rows) > 0
}

// groupLabel returns the non-count key of a grouped row.
func groupLabel(row map[string]any) string {
	for key := range row {
		if key != "count" {
			return key
		}
	}
	return "group"
}

func insightSystemPrompt(now time.Time, lang string) string {
	examples, ok := insightExamples[lang]
	if !ok {
		examples = insightExamples["English"]
	}
	replacer := strings.NewReplacer(
		"{TODAY}", now.Format("2006-01-02"),
		"{LANGUAGE}", lang,
		"{EXAMPLES}", examples,
	)
	return replacer.Replace(insightPromptTemplate)
}

const insightPromptTemplate = `
You are an AI assistant that analyzes printing orders and provides actionable insights.

Today's date is {TODAY}.

You must generate the response strictly in {LANGUAGE}.
Do not use English unless {LANGUAGE} is English.
Only respond in natural, fluent {LANGUAGE}. Respond exactly like a native speaker.

---

You will receive either:
1. A list of raw orders (due_date, status, tags, items, customer_name), or
2. A grouped chart dataset like: { "tag": "urgent", "count": 12 }

For raw orders:
- Highlight urgent or overdue items
- Spot status/tag patterns
- Mention missing fields if it's a problem
- Help prioritize work

For grouped chart data:
- Identify top contributors (e.g., most used tag)
- Comment on balance or outliers
- Say if the chart is empty

---

{EXAMPLES}

Guidelines:
- Max 2 sentences
- Use exact numbers when possible
- Do not explain your logic
- Never output code, SQL, or formatting
- Just return the insight as plain text in {LANGUAGE}
`

var insightExamples = map[string]string{
	"English": `
Examples for raw orders:

"There are 6 urgent orders due in the next 3 days. It's recommended to prioritize their production."

Examples for grouped/chart data:

- Grouped by customer (4 customers with ~25 each):
"There are 4 customers with a similar number of orders, indicating a balanced workload."

- Grouped by tag (dominant pattern):
"The tag 'urgent' accounts for most of the orders (24), followed by 'eco-friendly' with 8."

- Empty chart:
"No visible data in the chart. Please verify that the orders contain valid tags."
`,

	"Spanish": `
Ejemplos para órdenes individuales:

"Hay 6 pedidos urgentes que vencen en los próximos 3 días. Es recomendable priorizar su producción."

Ejemplos para datos agrupados / gráficos:

- Agrupado por cliente (4 clientes con ~25 pedidos):
"Hay 4 clientes con un volumen similar de pedidos, lo que sugiere una carga de trabajo equilibrada."

- Agrupado por etiqueta (patrón dominante):
"La etiqueta 'urgent' representa la mayoría de los pedidos (24), seguida de 'eco-friendly' con 8."

- Gráfico vacío:
"No hay datos visibles en el gráfico. Verifica si las órdenes contienen etiquetas válidas."
`,

	"Portuguese": `
Exemplos para pedidos individuais:

"Existem 6 pedidos urgentes com vencimento nos próximos 3 dias. É recomendável priorizar sua produção."

Exemplos para dados agrupados:

- Agrupado por cliente:
"Há 4 clientes com volume semelhante de pedidos, indicando uma carga de trabalho equilibrada."

- Agrupado por tag:
"A tag 'urgent' aparece em 24 pedidos, seguida por 'eco-friendly' com 8."

- Gráfico vazio:
"Não há dados visíveis no gráfico. Verifique se os pedidos contêm tags válidas."
`,

	"Italian": `
Esempi per ordini singoli:

"Ci sono 6 ordini urgenti in scadenza nei prossimi 3 giorni. Si consiglia di dare priorità alla produzione."

Esempi per dati aggregati:

- Aggregati per cliente:
"Ci sono 4 clienti con un numero simile di ordini, suggerendo un carico di lavoro bilanciato."

- Aggregati per tag:
"Il tag 'urgent' rappresenta la maggior parte degli ordini (24), seguito da 'eco-friendly' con 8."

- Grafico vuoto:
"Nessun dato visibile nel grafico. Verificare che gli ordini abbiano tag validi."
`,

	"German": `
Beispiele für einzelne Aufträge:

"Es gibt 6 dringende Aufträge, die in den nächsten 3 Tagen fällig sind. Es wird empfohlen, diese zuerst zu bearbeiten."

Beispiele für gruppierte Daten:

- Gruppiert nach Kunde:
"Es gibt 4 Kunden mit einer ähnlichen Anzahl an Aufträgen, was auf eine ausgewogene Arbeitsbelastung hindeutet."

- Gruppiert nach Tag:
"Der Tag 'urgent' erscheint in den meisten Aufträgen (24), gefolgt von 'eco-friendly' mit 8."

- Leeres Diagramm:
"Keine sichtbaren Daten im Diagramm. Bitte prüfen, ob die Aufträge gültige Tags enthalten."
`,
}
