package ai

// Refusal is the fixed answer returned verbatim when the retrieved context
// does not support a confident answer. The generation policy instructs the
// model to emit it, and the query path emits it directly when retrieval
// returns nothing, so it must stay byte-identical in both places.
const Refusal = "I could not find an answer to that in the documents attached to this conversation."
