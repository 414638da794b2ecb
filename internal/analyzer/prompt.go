package analyzer

import "fmt"

const systemPrompt = "You are an AI assistant that analyzes learning resources and returns strictly valid JSON."

const taskHeader = `
Analyze the following social media post for a learning resource categorization app.

Post Content: "%s"
Linked URL: "%s"

Task:
1. Determine if this content is related to IT, Technology, Programming, AI, or Web Development. (is_tech_related)
2. Determine the category (e.g., AI, Web Dev, Math, Career, General).
3. Determine difficulty (Beginner, Intermediate, Advanced, General).
4. Extract up to 3 relevant tags.
5. Check if it looks like a paywalled or purely sales content without educational value.
`

const localSummaryTask = `6. Generate a summary strictly in the following Markdown format (Must be in Japanese):
   - **Theme**: (Core topic in 3-5 Japanese words)
   - **About**: (1 sentence explanation in Japanese)
   - **Target**: (Target audience in 3-5 Japanese words)

IMPORTANT: Return valid JSON only. The "summary" field must contain the pre-formatted Markdown string in Japanese.

Example Output:
{
  "is_tech_related": true,
  "category": "AI",
  "difficulty": "Intermediate",
  "tags": ["LLM", "RAG", "Optimization"],
  "is_paywalled": false,
  "summary": "- **Theme**: RAG精度の向上手法\n- **About**: 階層的なチャンキングによるRAG最適化を解説。\n- **Target**: AIエンジニア"
}

Output JSON format:
{
  "is_tech_related": boolean,
  "category": "String",
  "difficulty": "String",
  "tags": ["String"],
  "is_paywalled": boolean,
  "summary": "String (The Markdown text in Japanese as specified above)"
}
`

const geminiSummaryTask = `6. Generate a structured summary with exactly 3 items:
   - Theme (What is the core topic in 3-5 words)
   - About (What is this resource explaining in 1 sentence)
   - Target (Who should read this in 3-5 words)

Output JSON format:
{
  "is_tech_related": boolean,
  "category": "String",
  "difficulty": "String",
  "tags": ["String"],
  "is_paywalled": boolean,
  "summary": "String (Markdown format with the 3 items above)"
}
`

func linkedOrNone(linkedURL string) string {
	if linkedURL == "" {
		return "None"
	}
	return linkedURL
}

// localPrompt asks for a Japanese Theme/About/Target summary
func localPrompt(text, linkedURL string) string {
	return fmt.Sprintf(taskHeader, text, linkedOrNone(linkedURL)) + localSummaryTask
}

func geminiPrompt(text, linkedURL string) string {
	return fmt.Sprintf(taskHeader, text, linkedOrNone(linkedURL)) + geminiSummaryTask
}
