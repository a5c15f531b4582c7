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
// File Name:  config.go
//
// Author:  Jonathan Kans
//
// ==========================================================================

package dbiutils

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// header field limits
const (
	DBNAMELEN  = 20
	RELEASELEN = 10
)

// source layouts
const (
	LAYOUTGCG  = "gcg"
	LAYOUTFLAT = "flat"
)

// BulkMode selects where entries and accessions are held while sorting
type BulkMode int

// MEMORY keeps pointer arrays, EXTERNAL writes intermediate text files,
// AUTO picks one from the size of the source data
const (
	MEMORY BulkMode = iota
	EXTERNAL
	AUTO
)

func (bm BulkMode) String() string {

	switch bm {
	case MEMORY:
		return "memory"
	case EXTERNAL:
		return "external"
	case AUTO:
		return "auto"
	}

	return "unknown"
}

// ParseBulkMode converts a -bulk argument
func ParseBulkMode(str string) (BulkMode, error) {

	switch strings.ToLower(str) {
	case "memory", "mem", "":
		return MEMORY, nil
	case "external", "ext", "disk":
		return EXTERNAL, nil
	case "auto":
		return AUTO, nil
	}

	return MEMORY, configError("unrecognized bulk mode '%s'", str)
}

// Config holds every setting of one indexing run
type Config struct {
	DbName    string `toml:"dbname" comment:"database name, at most 20 characters"`
	Release   string `toml:"release" comment:"release tag, at most 10 characters"`
	Date      string `toml:"date" comment:"release date as DD/MM/YY, today if empty"`
	Directory string `toml:"directory" comment:"source database directory"`
	Filenames string `toml:"filenames" comment:"source file pattern, *.seq for gcg, *.dat for flat"`
	Exclude   string `toml:"exclude" comment:"pattern of source files to skip"`
	IndexDir  string `toml:"indexdir" comment:"output index directory"`
	TempDir   string `toml:"tempdir" comment:"directory for intermediate files, index directory if empty"`
	Dialect   string `toml:"idformat" comment:"embl, swiss, genbank, or pir"`
	Layout    string `toml:"layout" comment:"gcg for paired .ref/.seq files, flat for single files"`
	Bulk      string `toml:"bulk" comment:"memory, external, or auto"`
	Sorter    string `toml:"sort" comment:"internal or command"`
	SortCmd   string `toml:"sortcmd" comment:"external sort program"`
	Keep      bool   `toml:"keep" comment:"retain intermediate files"`
	Compress  bool   `toml:"gzip" comment:"compress intermediate files"`
	BigEndian bool   `toml:"bigendian" comment:"write index integers in big-endian order"`
	MaxIDLen  int    `toml:"maxid" comment:"maximum identifier width"`
	MaxAccLen int    `toml:"maxacc" comment:"maximum accession width"`
	Chunk     int    `toml:"chunk" comment:"lines per sorted chunk of resolved accessions"`
	Progress  bool   `toml:"progress" comment:"show progress bar"`
}

// DefaultConfig returns settings matching the command-line defaults
func DefaultConfig() *Config {

	return &Config{
		Directory: ".",
		IndexDir:  ".",
		Dialect:   "embl",
		Layout:    LAYOUTGCG,
		Bulk:      "memory",
		Sorter:    "internal",
		SortCmd:   "sort",
		MaxIDLen:  15,
		MaxAccLen: 15,
		Chunk:     1 << 20,
	}
}

// LoadConfig reads a TOML settings file over the defaults, rejecting unknown keys
func LoadConfig(fileName string) (*Config, error) {

	cfg := DefaultConfig()

	if err := cfg.Load(fileName); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load applies a TOML settings file over the current values. Keys absent
// from the file leave their fields unchanged.
func (cfg *Config) Load(fileName string) error {

	fl, err := os.Open(fileName)
	if err != nil {
		return configError("unable to open configuration file '%s': %v", fileName, err)
	}

	defer fl.Close()

	dec := toml.NewDecoder(fl)
	dec.DisallowUnknownFields()

	err = dec.Decode(cfg)
	if err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return configError("unknown setting in '%s': %s", fileName, sme.String())
		}
		return configError("unable to parse configuration file '%s': %v", fileName, err)
	}

	return nil
}

// Validate checks settings before any file is touched, filling in derived defaults
func (cfg *Config) Validate() error {

	if cfg.DbName == "" {
		return configError("database name is missing")
	}
	if len(cfg.DbName) > DBNAMELEN {
		return configError("database name '%s' is longer than %d characters", cfg.DbName, DBNAMELEN)
	}
	if len(cfg.Release) > RELEASELEN {
		return configError("release '%s' is longer than %d characters", cfg.Release, RELEASELEN)
	}

	if cfg.Date == "" {
		cfg.Date = time.Now().Format("02/01/06")
	}
	if _, err := ParseReleaseDate(cfg.Date); err != nil {
		return err
	}

	if _, err := LookupDialect(cfg.Dialect); err != nil {
		return err
	}

	switch cfg.Layout {
	case LAYOUTGCG:
		if cfg.Filenames == "" {
			cfg.Filenames = "*.seq"
		}
	case LAYOUTFLAT:
		if cfg.Filenames == "" {
			cfg.Filenames = "*.dat"
		}
	default:
		return configError("unrecognized layout '%s'", cfg.Layout)
	}

	if _, err := ParseBulkMode(cfg.Bulk); err != nil {
		return err
	}

	switch cfg.Sorter {
	case "internal", "":
		cfg.Sorter = "internal"
	case "command":
		if cfg.SortCmd == "" {
			cfg.SortCmd = "sort"
		}
	default:
		return configError("unrecognized sort strategy '%s'", cfg.Sorter)
	}

	if cfg.MaxIDLen < 1 {
		return configError("maximum identifier width %d is too small", cfg.MaxIDLen)
	}
	if cfg.MaxAccLen < 1 {
		return configError("maximum accession width %d is too small", cfg.MaxAccLen)
	}
	if cfg.Chunk < 1 {
		cfg.Chunk = 1 << 20
	}

	fi, err := os.Stat(cfg.Directory)
	if err != nil || !fi.IsDir() {
		return configError("source directory '%s' is not readable", cfg.Directory)
	}
	if _, err := os.ReadDir(cfg.Directory); err != nil {
		return configError("source directory '%s' is not readable", cfg.Directory)
	}

	if err := checkWritable(cfg.IndexDir); err != nil {
		return err
	}
	if cfg.TempDir == "" {
		cfg.TempDir = cfg.IndexDir
	} else if err := checkWritable(cfg.TempDir); err != nil {
		return err
	}

	return nil
}

func checkWritable(dir string) error {

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return configError("output directory '%s' does not exist", dir)
	}

	fl, err := os.CreateTemp(dir, ".seqdbi-probe-*")
	if err != nil {
		return configError("output directory '%s' is not writable", dir)
	}
	name := fl.Name()
	fl.Close()
	os.Remove(name)

	return nil
}

// ParseReleaseDate converts DD/MM/YY into the four header date bytes {0, YY, MM, DD}
func ParseReleaseDate(str string) ([4]byte, error) {

	var date [4]byte

	parts := strings.Split(str, "/")
	if len(parts) != 3 {
		return date, configError("release date '%s' is not in DD/MM/YY form", str)
	}

	limits := [3]int{31, 12, 99}
	for i, part := range parts {
		val, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || val < 0 || val > limits[i] {
			return date, configError("release date '%s' is not in DD/MM/YY form", str)
		}
		date[3-i] = byte(val)
	}

	return date, nil
}
