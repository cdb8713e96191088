package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/markdave123-py/EduAI/internal/models"
)

var agentLabels = map[string]string{
	models.AgentLessonPlanner:          "Lesson Planner",
	models.AgentDifferentiatedMaterial: "Differentiated Materials",
	models.AgentKnowledgeBase:          "Knowledge Base",
	models.AgentVisualAids:             "Visual Aids",
	models.AgentARIntegration:          "AR Integration",
	models.AgentGamifiedTeaching:       "Gamified Teaching",
	models.AgentContentGeneration:      "Content Generation",
}

// AgentLabel returns the display name of an agent type.
func AgentLabel(agentType string) string {
	if l, ok := agentLabels[agentType]; ok {
		return l
	}
	return agentType
}

// KnownAgent reports whether agentType is one of the platform's agents.
func KnownAgent(agentType string) bool {
	_, ok := agentLabels[agentType]
	return ok
}

var agentInstructions = map[string]string{
	models.AgentLessonPlanner: `Create a lesson plan that includes:
1. Learning objectives aligned with the NCERT curriculum
2. A period by period breakdown
3. Activities suitable for multi-grade teaching
4. Assessment strategies
5. Resource requirements that work with limited materials
6. Differentiation strategies for each grade`,
	models.AgentDifferentiatedMaterial: `Create one version of the material per target grade.
Adjust vocabulary, depth and question difficulty to each grade and label every section with its grade.`,
	models.AgentVisualAids: `Describe a visual aid (diagram, flowchart or chart) that:
1. Explains the concept clearly for the target grades
2. Can be drawn on a blackboard or made with basic materials
3. Includes a step-by-step creation guide and usage notes for the teacher`,
	models.AgentARIntegration: `Plan an augmented reality activity around 3D models.
List the models to look for, what students should observe, and discussion questions.`,
	models.AgentGamifiedTeaching: `Design a classroom game that teaches the topic.
Give rules, materials, scoring, and how to adapt it for each grade.`,
	models.AgentKnowledgeBase: `Answer the question for the target grades with local examples and analogies.`,
	models.AgentContentGeneration: `Create engaging, interactive teaching content with local examples,
festivals and cultural references where relevant.`,
}

// contentPrompt builds the system and user prompts for a generation request.
func contentPrompt(req ContentRequest) (string, string) {
	source := "external educational resources"
	if req.ContentSource == models.ContentSourcePrebook {
		source = "NCERT curriculum books"
	}
	langs := "English"
	if len(req.Languages) > 0 {
		langs = strings.Join(req.Languages, ", ")
	}

	var sys strings.Builder
	sys.WriteString("You are an expert Indian education specialist creating material for multi-grade classrooms.\n\n")
	fmt.Fprintf(&sys, "Context:\n- Target grades: %s\n- Languages: %s\n- Content source: %s\n- Agent: %s\n\n",
		joinInts(req.Grades), langs, source, AgentLabel(req.AgentType))
	if ins, ok := agentInstructions[req.AgentType]; ok {
		sys.WriteString(ins)
		sys.WriteString("\n\n")
	}
	if len(req.Languages) > 1 {
		sys.WriteString("Provide bilingual content in the requested languages.\n")
	}
	sys.WriteString("Respond in Markdown and start with a level one heading that names the material.")

	return sys.String(), req.Prompt
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// titleFrom picks the first Markdown heading of body, or builds one from the
// prompt.
func titleFrom(body, agentType, prompt string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			if t := strings.TrimSpace(strings.TrimLeft(line, "#")); t != "" {
				return t
			}
		}
	}
	p := strings.TrimSpace(prompt)
	if r := []rune(p); len(r) > 60 {
		p = string(r[:60]) + "..."
	}
	return AgentLabel(agentType) + ": " + p
}

const knowledgeSystemPrompt = `You are a knowledgeable Indian education assistant answering questions from teachers and students.
Use the textbook passages when they are relevant and stay within the target grade.
Reply with a single JSON object and nothing else:
{"answer": string, "explanation": string, "confidence": number between 0 and 1,
 "analogies": [string], "followUpQuestions": [string]}`

func knowledgePrompt(q Question, passages []models.ScoredChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.Question)
	if q.Grade > 0 {
		fmt.Fprintf(&b, "Grade: %d\n", q.Grade)
	}
	if q.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", q.Subject)
	}
	fmt.Fprintf(&b, "Response language: %s\n", q.Language)
	if len(passages) > 0 {
		b.WriteString("\nTextbook passages:\n")
		for _, p := range passages {
			fmt.Fprintf(&b, "[%s, class %d %s]\n%s\n---\n", p.Textbook.BookTitle, p.Textbook.Class, p.Textbook.Subject, p.Chunk.Text)
		}
	}
	return b.String()
}
