package mcpserver

// SyntaxGuide describes the markdown dialect documents are written in, for
// LLM consumers creating or editing documents.
const SyntaxGuide = `# Inkwell Markdown Syntax

Documents are CommonMark with tables, strikethrough and the extensions below.

## Front matter

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – defaults to the first level-1 heading
permalink: /guides/setup           # OPTIONAL – defaults to the lower-cased path
---
` + "```" + `

## Links and embeds

- ` + "`[[other-doc]]`" + ` links to another document by its path without ` + "`.md`" + `.
- ` + "`[[other-doc|label]]`" + ` sets the link text.
- ` + "`[[other-doc#Heading]]`" + ` links to a heading of that document.
- ` + "`![[other-doc]]`" + ` inlines the whole document.
- ` + "`![[other-doc#Heading]]`" + ` inlines only that section, up to the next heading of the same or higher level.
- ` + "`![[picture.png|Caption]]`" + ` embeds an image with a caption. Images wider than the configured maximum are scaled down.
- Audio, video and PDF files are embedded the same way.
- Targets that do not exist render as a visible placeholder. Embeds of missing files are dropped.

## Highlights

` + "`==marked text==`" + ` renders as highlighted text.

## Admonitions

A fenced block tagged ` + "`ad-<kind>`" + ` renders as a callout. Leading keyword lines
configure it; the rest is markdown.

` + "```" + `markdown
` + "```" + `ad-warning
title: Careful
collapse: close
color: 255, 0, 0
Body text with [[links]].
` + "```" + `
` + "```" + `

## FAQ

A fenced block tagged ` + "`faq`" + ` renders as a question list: an optional level-1
heading is the section title, each deeper heading is a question and the
paragraphs below it are the answer.

## Media

- Upload media via the ` + "`upload_media`" + ` tool. It returns an ` + "`embed`" + ` field ready to paste into a document.
- Published media is compared by content hash and copied only when it changed.
`
