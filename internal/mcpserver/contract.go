package mcpserver

// FilterContract describes the criteria language that LLM consumers
// should follow when searching widgets.
const FilterContract = `# Raido Filter Criteria Contract

Search criteria are a JSON object. Each key is a field path, each value
a condition. All top-level conditions must match (implicit AND). An
empty object matches every widget.

## Field paths

- Dotted paths descend into nested objects: ` + "`" + `properties.text` + "`" + `
- Bracketed segments address keys that contain dots: ` + "`" + `properties.[app.version]` + "`" + `
- A path that does not exist in the widget record never matches.

## Conditions

- Literal values test equality: ` + "`" + `{"type": "note"}` + "`" + `
- String patterns support a leading and/or trailing ` + "`" + `*` + "`" + ` wildcard:
  ` + "`" + `"budget*"` + "`" + ` (prefix), ` + "`" + `"*draft"` + "`" + ` (suffix), ` + "`" + `"*plan*"` + "`" + ` (contains),
  ` + "`" + `"*"` + "`" + ` (any present value). A ` + "`" + `*` + "`" + ` anywhere else is literal.
- Operator objects compare or combine:
  - ` + "`" + `$gt` + "`" + `, ` + "`" + `$gte` + "`" + `, ` + "`" + `$lt` + "`" + `, ` + "`" + `$lte` + "`" + ` — numeric comparison, operand must be a number
  - ` + "`" + `$ne` + "`" + ` — not equal
  - ` + "`" + `$regex` + "`" + ` — Go regular expression, unanchored
  - ` + "`" + `$and` + "`" + `, ` + "`" + `$or` + "`" + ` — arrays of criteria objects

Numbers compare by value regardless of integer/float representation.
Numeric strings are NOT coerced: ` + "`" + `"42"` + "`" + ` never equals ` + "`" + `42` + "`" + `.

## Examples

` + "```" + `json
{"type": "note", "properties.text": "*roadmap*"}
{"size.width": {"$gt": 500}}
{"$or": [{"type": "note"}, {"type": "image"}]}
{"properties.title": {"$regex": "^Q[1-4] "}}
` + "```" + `
`
