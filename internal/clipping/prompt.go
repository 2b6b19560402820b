package clipping

import (
	"fmt"
	"strings"

	"github.com/lfpaiva/jornal-agent/internal/extract"
)

const systemPrompt = "Você é um assistente especializado em análise de jornais."

const promptTemplate = `Você é um assistente especializado em análise de jornais e geração de clipagens.

Analise o conteúdo das páginas do jornal fornecidas e gere uma clipagem seguindo estas regras:

**CRITÉRIOS DE SELEÇÃO:**
- Foque em notícias relevantes sobre política, economia, negócios, tecnologia e assuntos locais importantes
- IGNORE anúncios, classificados e propagandas
- IGNORE a capa (página 1) pois já é um resumo
- NÃO inclua obituários, horóscopo ou entretenimento leve

**FORMATO DE SAÍDA:**
Para cada item relevante, use exatamente este formato (uma linha por item):

Página X | **Assunto/Tema** | Resumo breve (máximo 150 caracteres)

- Use asteriscos para negrito no assunto/tema: **Exemplo**
- Deixe uma linha em branco entre cada item
- Limite cada resumo a NO MÁXIMO 150 caracteres
- Ordene por página

**EXEMPLO DE SAÍDA:**
Página 2 | **Economia** | Banco Central mantém taxa Selic em 10,5% e sinaliza cautela com inflação.

Página 3 | **Política** | Senado aprova projeto de lei sobre reforma tributária com emendas.

---

**CONTEÚDO DO JORNAL PARA ANALISAR:**

%s

---

Gere a clipagem seguindo rigorosamente o formato especificado:`

// buildPrompt renders one chunk of pages into the instruction template,
// labelling each page and flagging OCR-recovered text.
func buildPrompt(pages []extract.Page) string {
	var sb strings.Builder
	for _, p := range pages {
		note := ""
		if p.OCRUsed {
			note = " [OCR]"
		}
		sb.WriteString(fmt.Sprintf("--- PÁGINA %d%s ---\n%s\n\n", p.Number, note, p.Text))
	}
	return fmt.Sprintf(promptTemplate, strings.TrimRight(sb.String(), "\n"))
}
