// Package config loads build and package settings.
//
// Values are resolved from, in increasing priority: built-in defaults, a
// ".env" file at the project root, SDLPACK_* environment variables, and
// finally command line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Archivers accepted by Config.Archiver.
const (
	ArchiverNuGet = "nuget"
	ArchiverZip   = "zip"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Root    string
	Project string // package id base and library binary name, e.g. "SDL3"
	Library string // directory name under sources/, e.g. "SDL"

	Configuration string // Debug or Release
	Version       string // empty: derive from git history
	Vendor        string
	Archiver      string

	Authors         string
	License         string // SPDX expression
	ProjectURL      string
	RepositoryURL   string
	Description     string
	Copyright       string
	TargetFramework string

	// SourceRepo and SourceRef, when set, let the build fetch a missing
	// source tree.
	SourceRepo string
	SourceRef  string

	Docs []string

	Publish PublishConfig
}

type PublishConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Default returns the built-in settings for packaging SDL3.
func Default() *Config {
	return &Config{
		Root:            ".",
		Project:         "SDL3",
		Library:         "SDL",
		Configuration:   "Release",
		Vendor:          "sdlpack",
		Archiver:        ArchiverNuGet,
		Authors:         "Sam Lantinga",
		License:         "Zlib",
		ProjectURL:      "https://libsdl.org",
		RepositoryURL:   "https://github.com/libsdl-org/SDL",
		Description:     "Simple DirectMedia Layer is a cross-platform development library designed to provide low level access to audio, keyboard, mouse, joystick, and graphics hardware.",
		Copyright:       "Copyright (C) 1997-2025 Sam Lantinga",
		TargetFramework: "netstandard2.0",
		Docs:            []string{"LICENSE.txt", "README.md", "WhatsNew.txt", "BUGS.txt"},
		Publish: PublishConfig{
			Region: "us-east-1",
			Bucket: "sdlpack",
			UseSSL: true,
		},
	}
}

// Load reads root/.env (if present) and the process environment on top of
// the defaults.
func Load(root string) (*Config, error) {
	c := Default()
	c.Root = root

	dotenv := map[string]string{}
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); err == nil {
		if dotenv, err = godotenv.Read(path); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	lookup := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(dotenv[key])
	}
	set := func(dst *string, key string) {
		if v := lookup(key); v != "" {
			*dst = v
		}
	}

	set(&c.Project, "SDLPACK_PROJECT")
	set(&c.Library, "SDLPACK_LIBRARY")
	set(&c.Configuration, "SDLPACK_CONFIGURATION")
	set(&c.Version, "SDLPACK_VERSION")
	set(&c.Vendor, "SDLPACK_VENDOR")
	set(&c.Archiver, "SDLPACK_ARCHIVER")
	set(&c.Authors, "SDLPACK_AUTHORS")
	set(&c.License, "SDLPACK_LICENSE")
	set(&c.ProjectURL, "SDLPACK_PROJECT_URL")
	set(&c.RepositoryURL, "SDLPACK_REPOSITORY_URL")
	set(&c.Description, "SDLPACK_DESCRIPTION")
	set(&c.Copyright, "SDLPACK_COPYRIGHT")
	set(&c.TargetFramework, "SDLPACK_TARGET_FRAMEWORK")
	set(&c.SourceRepo, "SDLPACK_SOURCE_REPO")
	set(&c.SourceRef, "SDLPACK_SOURCE_REF")
	if v := lookup("SDLPACK_DOCS"); v != "" {
		c.Docs = splitList(v)
	}

	p := &c.Publish
	set(&p.Endpoint, "SDLPACK_S3_ENDPOINT")
	set(&p.Region, "SDLPACK_S3_REGION")
	set(&p.AccessKey, "SDLPACK_S3_ACCESS_KEY")
	set(&p.SecretKey, "SDLPACK_S3_SECRET_KEY")
	set(&p.Bucket, "SDLPACK_S3_BUCKET")
	set(&p.Prefix, "SDLPACK_S3_PREFIX")
	if v := lookup("SDLPACK_S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: SDLPACK_S3_USE_SSL=%q", ErrInvalid, v)
		}
		p.UseSSL = b
	}
	return c, nil
}

// Validate reports settings that would make the build fail later.
func (c *Config) Validate() error {
	switch c.Configuration {
	case "Debug", "Release":
	default:
		return fmt.Errorf("%w: configuration %q (want Debug or Release)", ErrInvalid, c.Configuration)
	}
	switch c.Archiver {
	case ArchiverNuGet, ArchiverZip:
	default:
		return fmt.Errorf("%w: archiver %q (want %s or %s)", ErrInvalid, c.Archiver, ArchiverNuGet, ArchiverZip)
	}
	if c.Project == "" || c.Library == "" {
		return fmt.Errorf("%w: project and library must be set", ErrInvalid)
	}
	if strings.ContainsAny(c.Project, `/\ `) {
		return fmt.Errorf("%w: project %q", ErrInvalid, c.Project)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
