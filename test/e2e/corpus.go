package e2e

import (
	"fmt"
)

// CorpusDocument is one document in the end-to-end corpus. Signature is a
// phrase unique to the document so queries can assert the correct document
// comes back first.
type CorpusDocument struct {
	Name      string
	Ext       string
	Signature string
	Body      string
}

// QueryCase is a query and the document that must rank first for it.
type QueryCase struct {
	Query       string
	ExpectedDoc string
}

// Corpus holds documents and query cases for end-to-end tests.
type Corpus struct {
	Documents []CorpusDocument
	Cases     []QueryCase
}

var corpusTopics = []string{
	"quarterly financial report with revenue figures",
	"employee onboarding handbook and policies",
	"infrastructure migration plan for the data center",
	"customer satisfaction survey results",
	"product roadmap for the next release cycle",
	"incident postmortem for the outage",
	"vendor contract renewal terms",
	"marketing campaign performance summary",
	"engineering design document for the billing service",
	"compliance audit checklist and findings",
}

// BuildCorpus returns a corpus of n documents, alternating between supported
// extensions, each carrying a unique signature phrase, plus one query case
// per document.
func BuildCorpus(n int) *Corpus {
	c := &Corpus{}
	for i := 0; i < n; i++ {
		ext := SupportedFileExtensions[i%len(SupportedFileExtensions)]
		signature := fmt.Sprintf("unique signature phrase document %03d", i)
		topic := corpusTopics[i%len(corpusTopics)]
		name := fmt.Sprintf("doc-%03d%s", i, ext)
		c.Documents = append(c.Documents, CorpusDocument{
			Name:      name,
			Ext:       ext,
			Signature: signature,
			Body:      fmt.Sprintf("This is the %s. %s.", topic, signature),
		})
		c.Cases = append(c.Cases, QueryCase{
			Query:       c.Documents[i].Body,
			ExpectedDoc: name,
		})
	}
	return c
}
