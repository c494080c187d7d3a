// Package extract turns meeting transcripts into structured summaries and
// action items using the Gemini API. Model output is validated against a
// JSON Schema before it enters the rest of the system, so downstream code
// never sees a malformed extraction.
package extract
