// Package lockfile implements the Gemfile.lock data model together with a
// parser and a canonical serializer.
//
// The format is the line-oriented, indentation-sensitive text format written
// by Bundler. A lockfile consists of a series of sections:
//
//	GIT
//	  remote: https://github.com/rack/rack.git
//	  revision: 5a9f1d2c...
//	  specs:
//	    rack (3.0.8)
//
//	GEM
//	  remote: https://rubygems.org/
//	  specs:
//	    nokogiri (1.14.0-arm64-darwin)
//	      racc (~> 1.4)
//	    racc (1.6.2)
//
//	PLATFORMS
//	  arm64-darwin
//	  ruby
//
//	DEPENDENCIES
//	  nokogiri (~> 1.14)
//	  rack!
//
//	RUBY VERSION
//	   ruby 3.2.2p53
//
//	BUNDLED WITH
//	   2.4.10
//
// # Canonical form
//
// Serialize always emits sections in a fixed order (GIT, PATH, GEM,
// PLATFORMS, DEPENDENCIES, RUBY VERSION, BUNDLED WITH) with entries sorted
// by name, then platform, then source. Parsing the serializer's output
// yields a Resolution equal in content to the one serialized, regardless of
// the order entries were added in. This makes lockfiles reproducible
// byte-for-byte across runs and machines.
//
// # Tolerance
//
// The parser accepts empty input (an empty Resolution), blank lines between
// sections and trailing whitespace. A line inside a known section that does
// not match the section's shape fails with a *SyntaxError carrying the line
// number and text. Unknown top-level sections are rejected the same way;
// entries are never silently dropped.
package lockfile
