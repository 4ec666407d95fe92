/*
Package chat implements the synchronous question-answering path.

An Engine ties the conversation store, the vector index and the AI provider
together. Ask persists the user's turn, embeds the question, retrieves the
most similar chunks from the conversation's own collection and asks the
generator for an answer grounded in them. Retrieval is strictly scoped to
one conversation; a question can never be answered from another
conversation's documents.
*/
package chat
