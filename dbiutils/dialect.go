// ===========================================================================
//
//                            PUBLIC DOMAIN NOTICE
//            National Center for Biotechnology Information (NCBI)
//
//  This software/database is a "United States Government Work" under the
//  terms of the United States Copyright Act. It was written as part of
//  the author's official duties as a United States Government employee and
//  thus cannot be copyrighted. This software/database is freely available
//  to the public for use. The National Library of Medicine and the U.S.
//  Government do not place any restriction on its use or reproduction.
//  We would, however, appreciate having the NCBI and the author cited in
//  any work or product based on this material.
//
//  Although all reasonable efforts have been taken to ensure the accuracy
//  and reliability of the software and data, the NLM and the U.S.
//  Government do not and cannot warrant the performance or results that
//  may be obtained by using this software or data. The NLM and the U.S.
//  Government disclaim all warranties, express or implied, including
//  warranties of performance, merchantability or fitness for any particular
//  purpose.
//
// ===========================================================================
//
// File Name:  dialect.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"regexp"
	"sort"
	"strings"
)

// LineKind classifies one annotation line
type LineKind int

// annotation line classes
const (
	NOLINE LineKind = iota
	IDLINE
	ACCLINE
)

// LineResult is what a parser extracts from one line
type LineResult struct {
	Kind       LineKind
	ID         string
	Accessions []string
}

// RecordParser is fed the annotation lines of one record in order. It may
// carry state between lines for continuation lines, cleared by Reset.
type RecordParser interface {
	Reset()
	ParseLine(line, id string) LineResult
}

// Dialect describes one flat-file annotation format
type Dialect interface {
	Name() string
	NewParser() RecordParser

	// record boundaries, used by single-stream layouts
	StartsRecord(line string) bool
	StartsSequence(line string) bool
	EndsRecord(line string) bool
}

// accession tokens are runs of letters, digits, and underscores
var accessionPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

func accessionTokens(str string) []string {

	return accessionPattern.FindAllString(str, -1)
}

// lineDialect is a format whose records are delimited by fixed line prefixes
type lineDialect struct {
	name     string
	idTag    string
	seqTag   string
	endTag   string
	mkParser func() RecordParser
}

func (d *lineDialect) Name() string {
	return d.name
}

func (d *lineDialect) NewParser() RecordParser {
	return d.mkParser()
}

func (d *lineDialect) StartsRecord(line string) bool {
	return hasTag(line, d.idTag)
}

func (d *lineDialect) StartsSequence(line string) bool {
	return hasTag(line, d.seqTag)
}

func (d *lineDialect) EndsRecord(line string) bool {
	return strings.TrimRight(line, " \t") == d.endTag
}

// hasTag matches a line code followed by whitespace or end of line
func hasTag(line, tag string) bool {

	if !strings.HasPrefix(line, tag) {
		return false
	}
	if len(line) == len(tag) {
		return true
	}

	ch := line[len(tag)]

	return ch == ' ' || ch == '\t'
}

// firstWord returns the first field after a line code, without trailing punctuation
func firstWord(str string) string {

	flds := strings.Fields(str)
	if len(flds) < 1 {
		return ""
	}

	return strings.TrimRight(flds[0], ";,.")
}

// emblParser handles EMBL and Swiss-Prot, whose AC lines each stand alone
type emblParser struct{}

func (p *emblParser) Reset() {
}

func (p *emblParser) ParseLine(line, id string) LineResult {

	if hasTag(line, "ID") {
		if word := firstWord(line[2:]); word != "" {
			return LineResult{Kind: IDLINE, ID: word}
		}
		return LineResult{Kind: NOLINE, ID: id}
	}

	if hasTag(line, "AC") {
		return LineResult{Kind: ACCLINE, ID: id, Accessions: accessionTokens(line[2:])}
	}

	return LineResult{Kind: NOLINE, ID: id}
}

// genbankParser follows ACCESSION continuation lines indented by twelve spaces
type genbankParser struct {
	inAcc bool
}

const genbankIndent = "            "

func (p *genbankParser) Reset() {
	p.inAcc = false
}

func genbankTokens(str string) []string {

	// secondary fields such as REGION end the accession list
	if pos := strings.Index(str, "REGION"); pos >= 0 {
		str = str[:pos]
	}

	return accessionTokens(str)
}

func (p *genbankParser) ParseLine(line, id string) LineResult {

	if hasTag(line, "LOCUS") {
		p.inAcc = false
		if word := firstWord(line[5:]); word != "" {
			return LineResult{Kind: IDLINE, ID: word}
		}
		return LineResult{Kind: NOLINE, ID: id}
	}

	if hasTag(line, "ACCESSION") {
		p.inAcc = true
		return LineResult{Kind: ACCLINE, ID: id, Accessions: genbankTokens(line[9:])}
	}

	if p.inAcc && strings.HasPrefix(line, genbankIndent) {
		return LineResult{Kind: ACCLINE, ID: id, Accessions: genbankTokens(line)}
	}

	p.inAcc = false

	return LineResult{Kind: NOLINE, ID: id}
}

// pirParser follows ACCESSIONS continuation lines that begin with white space
type pirParser struct {
	inAcc bool
}

func (p *pirParser) Reset() {
	p.inAcc = false
}

func (p *pirParser) ParseLine(line, id string) LineResult {

	if hasTag(line, "ENTRY") {
		p.inAcc = false
		if word := firstWord(line[5:]); word != "" {
			return LineResult{Kind: IDLINE, ID: word}
		}
		return LineResult{Kind: NOLINE, ID: id}
	}

	if hasTag(line, "ACCESSIONS") {
		p.inAcc = true
		return LineResult{Kind: ACCLINE, ID: id, Accessions: accessionTokens(line[10:])}
	}

	if p.inAcc && line != "" && (line[0] == ' ' || line[0] == '\t') {
		return LineResult{Kind: ACCLINE, ID: id, Accessions: accessionTokens(line)}
	}

	p.inAcc = false

	return LineResult{Kind: NOLINE, ID: id}
}

var dialects = map[string]Dialect{
	"embl": &lineDialect{name: "embl", idTag: "ID", seqTag: "SQ", endTag: "//",
		mkParser: func() RecordParser { return &emblParser{} }},
	"swiss": &lineDialect{name: "swiss", idTag: "ID", seqTag: "SQ", endTag: "//",
		mkParser: func() RecordParser { return &emblParser{} }},
	"genbank": &lineDialect{name: "genbank", idTag: "LOCUS", seqTag: "ORIGIN", endTag: "//",
		mkParser: func() RecordParser { return &genbankParser{} }},
	"pir": &lineDialect{name: "pir", idTag: "ENTRY", seqTag: "SEQUENCE", endTag: "///",
		mkParser: func() RecordParser { return &pirParser{} }},
}

var dialectAliases = map[string]string{
	"em":        "embl",
	"sw":        "swiss",
	"swissprot": "swiss",
	"gb":        "genbank",
	"ddbj":      "genbank",
	"nbrf":      "pir",
}

// LookupDialect resolves a -idformat name, once, before scanning begins
func LookupDialect(name string) (Dialect, error) {

	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := dialectAliases[key]; ok {
		key = alias
	}

	dlct, ok := dialects[key]
	if !ok {
		return nil, configError("unrecognized database format '%s', expected one of %s",
			name, strings.Join(DialectNames(), ", "))
	}

	return dlct, nil
}

// DialectNames lists the supported formats
func DialectNames() []string {

	var keys []string
	for key := range dialects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
