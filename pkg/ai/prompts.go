package ai

// DefaultEntityTypes is the fallback set used when the classification call
// fails or returns nothing usable.
var DefaultEntityTypes = []string{"PERSON", "ORGANIZATION", "LOCATION", "CONCEPT", "EVENT"}

const ClassifyTypesPrompt = `
# Task Context
You are an assistant that chooses the entity categories best suited for knowledge-graph extraction from a piece of text.

# Background Data
Text sample:
%s

# Detailed Task Description & Rules
- Propose at most 5 entity type labels that capture the most useful categories for this content.
- Labels must be short, ALL CAPS, singular (e.g. "PERSON", "DRUG", "COURT_CASE").
- Prefer domain-specific categories over generic ones when the text clearly belongs to a domain (legal, medical, financial, technical, ...).
- Do not invent categories the text gives no evidence for.

# Output Formatting
Return a JSON object with this structure:
{
  "entity_types": ["<TYPE1>", "<TYPE2>"]
}
Output must be valid JSON only (no commentary, no extra text).
`

const ExtractPrompt = `
# Task Context
You are tasked with extracting structured entity and relationship information from the provided text. Capture all details explicitly present in the text, without omission.

# Background Data
- **Entity_types:** [%s]

# Detailed Task Description & Rules
## Entity Extraction
1. Identify all entities of the specified types [%s].
2. For each entity, extract:
   - **label:** The name of the entity as it appears in the text.
   - **type:** One of the provided types [%s].
   - **properties:** A JSON object with any explicit attributes of the entity (dates, roles, amounts, qualifiers). Use an empty object when the text states none.

## Relationship Extraction
3. Identify directed relationships between the entities found in step 1.
4. For each relationship, extract:
   - **source:** The label of the source entity, exactly as written in step 1.
   - **target:** The label of the target entity, exactly as written in step 1.
   - **relationship:** A short verb phrase naming the relationship (e.g. "acquired", "works for", "located in").
5. Only report relationships whose both endpoints appear in the entity list.

# Output Formatting
Return a JSON object with this structure:
{
  "entities": [
    {"label": "<name>", "type": "<TYPE>", "properties": {}}
  ],
  "relationships": [
    {"source": "<label>", "target": "<label>", "relationship": "<verb phrase>"}
  ]
}
Output must be valid JSON only (no commentary, no extra text).
`

const ResolvePrompt = `
# Task Context
You are a helpful assistant specialized in identifying synonymous entities in a knowledge graph. You will be provided with a list of entity labels.

# Background Data
%s

# Detailed Task Description & Rules
- Group labels that refer to the SAME real-world thing under different names, abbreviations, or spellings.
- Choose the most complete, commonly used form as the canonical label for each group.
- Group ONLY true synonyms. Related but distinct concepts must remain separate.
- Consider variations such as:
  * Case and punctuation differences (e.g. "Acme Corp" vs "ACME CORP.")
  * Added legal entity suffixes (e.g. "IBM" vs "IBM Corporation")
  * Abbreviations and full names (e.g. "AT&T" vs "American Telephone and Telegraph")

# Examples
Consider these as synonyms:
- "Microsoft" and "Microsoft Corporation"
- "JFK" and "John F. Kennedy"

Do NOT consider these as synonyms:
- "Amazon" and "Amazon Web Services" (an organization and its product)
- "BMW" and "BMW Group" (different corporate structures)
- "Paris" and "France" (a city and its country)

# Output Formatting
Return a JSON object with this structure:
{
  "groups": [
    {
      "canonical": "<chosen final label>",
      "variants": ["<label1>", "<label2>"]
    }
  ]
}
Labels with no synonyms must be omitted entirely. Output must be valid JSON only (no commentary, no extra text).
`

const QueryPrompt = `
# Task Context
You are a helpful assistant answering questions over a private document collection. You will be given numbered context passages retrieved for the question.

# Background Data
%s

# Detailed Task Description & Rules
- Answer using ONLY the information in the provided passages.
- When passages disagree, prefer the one with the higher relevance position (earlier in the list) and note the disagreement.
- If the passages do not contain the answer, say so plainly instead of guessing.
- Keep the answer focused on the question; do not summarize unrelated passages.
`

const ChunkContextPrompt = `
# Task Context
You are an assistant that writes a one-sentence situating note for a document excerpt so it can stand alone in a retrieval context.

# Background Data
Excerpt:
%s

# Detailed Task Description & Rules
- Write exactly one short sentence naming what the excerpt is about and, when evident, the document or subject it belongs to.
- Do not repeat the excerpt text. Do not add information not present in it.

# Output Formatting
Return only the sentence, no quotes, no commentary.
`
