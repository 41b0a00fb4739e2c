package notes

import "fmt"

const narrativePrompt = `You are a skilled meeting notes writer. Your task is to transform this meeting transcript into a flowing, natural narrative summary.

IMPORTANT REQUIREMENTS:
- Write in continuous prose paragraphs (NO bullet points, lists, or headers)
- Use natural storytelling language as if describing the meeting to a colleague
- Follow the chronological flow of the conversation
- Preserve key decisions, action items, and important discussions
- Keep the tone professional but conversational
- Focus on what matters: decisions made, problems discussed, solutions proposed, and next steps

Write the summary as a cohesive narrative that captures the essence of the meeting.`

const combinePrompt = `You have summaries from different parts of a long meeting.
Combine these into one cohesive, flowing narrative that reads naturally.

IMPORTANT:
- Maintain chronological flow
- Remove any redundancy
- Write in continuous prose (no bullets or headers)
- Ensure smooth transitions between topics
- Keep all important decisions and action items`

func chunkPrompt(chunkNum, totalChunks int) string {
	return fmt.Sprintf(`You are summarizing part %d of %d of a meeting transcript.
Write a flowing narrative summary of this portion of the meeting.

IMPORTANT: Write in continuous prose paragraphs with no bullet points or headers.
Focus on the key discussions, decisions, and action items in this segment.`, chunkNum, totalChunks)
}
