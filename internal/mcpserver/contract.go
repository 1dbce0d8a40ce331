package mcpserver

// ContractURI is the resource URI of PostFormatContract.
const ContractURI = "folio://post-format"

// PostFormatContract describes the Markdown post format accepted by save_post.
const PostFormatContract = `# Folio Post Format Contract

A Markdown post is a frontmatter header followed by the body.

## Structure

` + "```" + `markdown
---
id: 3f1c2a9e-...                    # OPTIONAL – assigned on save when absent
title: Human-readable title         # REQUIRED
slug: url-safe-identifier           # REQUIRED – unique per locale
date: 2025-01-15T09:00:00Z          # OPTIONAL – RFC 3339 or YYYY-MM-DD
excerpt: "Summary, quoted: contains a colon"
author: Jane Doe
status: published                   # draft | published | scheduled
scheduledDate: 2025-02-01T08:00:00Z # only meaningful for scheduled posts
categories: news, releases          # comma-separated slugs
tags: go, storage                   # comma-separated slugs
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. The first line MUST be exactly ` + "`---`" + `; the header ends at the next ` + "`---`" + ` line.
2. Every header line is ` + "`key: value`" + ` on a single line. Lists, nested maps
   and multi-line values are not supported.
3. Quote a value with double quotes when it contains a colon, a double quote
   or a line break; escape ` + "`\"`" + ` and ` + "`\\`" + ` inside quotes, write line breaks as ` + "`\\n`" + `.
4. ` + "`status`" + ` defaults to published. Drafts are never public. Scheduled posts
   become public once ` + "`scheduledDate`" + ` (or ` + "`date`" + ` when absent) has passed.
5. Slugs contain no slashes. Locale is chosen by the caller, not the header.
6. Encoding is UTF-8.
`
