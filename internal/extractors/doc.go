// Package extractors turns policy files into ordered page texts.
//
// PDF files keep their real pagination. Formats without pagination (DOCX,
// plain text, Markdown, HTML) are cut into virtual pages of bounded length
// so that page numbers stay meaningful in citations.
//
// Extractors are registered with the Registry at startup.
package extractors
