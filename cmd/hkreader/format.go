package main

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"gopkg.in/yaml.v3"

	"github.com/mailarchive/hkreader/pkg/hkreader/store"
)

// EmailFrontmatter is the YAML frontmatter written above each email
// body in text output.
type EmailFrontmatter struct {
	MessageID string `yaml:"message_id"`
	List      string `yaml:"list"`
	From      string `yaml:"from"`
	Subject   string `yaml:"subject"`
	Date      string `yaml:"date"`
	InReplyTo string `yaml:"in_reply_to,omitempty"`
}

func frontmatterFor(listName string, e store.Email) EmailFrontmatter {
	return EmailFrontmatter{
		MessageID: e.MessageID,
		List:      listName,
		From:      formatSender(e),
		Subject:   e.Subject,
		Date:      e.Date.Format("2006-01-02 15:04:05 -0700"),
		InReplyTo: e.ParentURL,
	}
}

func formatSender(e store.Email) string {
	if e.Sender.Address == "" {
		return e.SenderName
	}
	return fmt.Sprintf("%s <%s>", e.SenderName, e.Sender.Address)
}

// renderBody prepares an archived message body for the terminal.
// Hyperkitty hands back the scrubbed text content, but some archives
// carry HTML-only posts; those get converted to markdown.
func renderBody(content string) string {
	if !looksLikeHTML(content) {
		return strings.TrimRight(content, "\n")
	}
	markdown, err := md.ConvertString(content)
	if err != nil {
		// Unconvertible HTML is still more useful shown raw than
		// dropped.
		return strings.TrimRight(content, "\n")
	}
	return strings.TrimSpace(markdown)
}

func looksLikeHTML(content string) bool {
	lowered := strings.ToLower(content)
	return strings.Contains(lowered, "<html") ||
		strings.Contains(lowered, "<body") ||
		strings.Contains(lowered, "</div>") ||
		strings.Contains(lowered, "</p>")
}

// formatEmail renders one email as YAML frontmatter plus body.
func formatEmail(listName string, e store.Email) (string, error) {
	var output strings.Builder

	output.WriteString("---\n")
	frontmatterBytes, err := yaml.Marshal(frontmatterFor(listName, e))
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	output.Write(frontmatterBytes)
	output.WriteString("---\n\n")

	output.WriteString(renderBody(e.Content))
	output.WriteString("\n")

	return output.String(), nil
}
