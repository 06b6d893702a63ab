package usecase

// Default prompt templates. Placeholders ({context}, {question},
// {context_with_indices}, {format_instructions}) are substituted
// literally; custom templates configured per assistant use the same
// placeholder names.
const (
	DefaultSystemPrompt = "You are a helpful assistant that answers questions using only the provided context.\n" +
		"Answer conversationally without mentioning the context or chunks to the user."

	DefaultUserPrompt = "Context:\n{context}\n\nQuestion: {question}"

	DefaultPreciseCitationSystemPrompt = "You are answering questions using provided context chunks.\n" +
		"Each chunk is numbered starting from 0. Track which chunks you use.\n\n" +
		"Instructions:\n" +
		"1. Answer using ONLY information from the chunks\n" +
		"2. Track which chunk numbers you actually used\n" +
		"3. Only include chunk indices you directly referenced\n" +
		"4. Do not include the used chunks in the answer\n\n" +
		"{format_instructions}"

	DefaultPreciseCitationUserPrompt = "Context Chunks:\n{context_with_indices}\n\nQuestion: {question}"

	DefaultHydePrompt = "Given a question, generate a paragraph that answers it.\n\n" +
		"Question: {question}\n\nParagraph: "

	// Instructions for the structured precise-citation output.
	citationFormatInstructions = "Respond with a JSON object matching this schema:\n" +
		`{"answer": "<the answer to the user's question>", ` +
		`"used_chunk_indices": [<0-based indices of the chunks you used>]}` + "\n" +
		"Return only the JSON object, no other text."

	noContextAnswer = "I couldn't find any relevant information to answer your question."
)
