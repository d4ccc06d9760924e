// Package tokenizer splits raw text into the word pieces a corpus
// vocabulary is built from.
//
// Available tokenizers:
//   - Words: lowercase, split "." off, split on whitespace
//   - Lines: Penn Treebank layout, every newline becomes an end-of-sentence token
//   - BPE: byte-pair merges learned from text or loaded from tokenizer.json
//   - TikToken: OpenAI encodings (cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	pieces, err := tokenizer.Words{}.Tokenize("You say goodbye and I say hello.")
//	// [you say goodbye and i say hello .]
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pieces, err = tok.Tokenize("Hello, world!")
package tokenizer
