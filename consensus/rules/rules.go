// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package rules implements composable header validation: single-purpose rules
// assembled into ordered, fork-specific rule sets.
package rules

import (
	"fmt"

	"github.com/chainadmit/chainadmit/consensus"
	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/types"
)

// Context is the fork context a header is validated in.
type Context struct {
	Time      uint64               // local wall-clock time in unix seconds
	FeeMarket *feemarket.FeeMarket // fee market of the header's fork, nil before activation
}

// Rule is a single stateless predicate over a header and its parent. Rules
// never modify either header and may be shared between goroutines.
type Rule interface {
	Name() string
	Validate(header, parent *types.Header, ctx *Context) error
}

// Failure describes the first rule a header failed.
type Failure struct {
	RuleSet string
	Rule    string
	Have    interface{}
	Want    interface{}
	Err     error
}

func (f *Failure) Error() string {
	if f.Have == nil && f.Want == nil {
		return fmt.Sprintf("%s: %s: %v", f.RuleSet, f.Rule, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v: have %v, want %v", f.RuleSet, f.Rule, f.Err, f.Have, f.Want)
}

func (f *Failure) Unwrap() error { return f.Err }

// fail builds the failure a rule reports. The rule set fills in its name.
func fail(rule Rule, err error, have, want interface{}) *Failure {
	return &Failure{Rule: rule.Name(), Have: have, Want: want, Err: err}
}

// Builder accumulates rules in evaluation order.
type Builder struct {
	name  string
	rules []Rule
}

// NewBuilder starts an empty rule set with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Add appends a rule.
func (b *Builder) Add(rule Rule) *Builder {
	b.rules = append(b.rules, rule)
	return b
}

// Build freezes the rules added so far. Rules added to the builder afterwards
// do not affect the returned set.
func (b *Builder) Build() *RuleSet {
	rules := make([]Rule, len(b.rules))
	copy(rules, b.rules)
	return &RuleSet{name: b.name, rules: rules}
}

// RuleSet is an ordered, immutable sequence of rules.
type RuleSet struct {
	name  string
	rules []Rule
}

// Name returns the name the set was built with.
func (rs *RuleSet) Name() string { return rs.name }

// Rules returns the rules of the set in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	rules := make([]Rule, len(rs.rules))
	copy(rules, rs.rules)
	return rules
}

// Validate runs every rule in order and stops at the first failure, which is
// returned as a *Failure. A genesis header has no parent and is accepted
// without evaluation.
func (rs *RuleSet) Validate(header, parent *types.Header, ctx *Context) error {
	if parent == nil {
		if header.Number.Sign() == 0 {
			return nil
		}
		return &Failure{RuleSet: rs.name, Rule: "Ancestry", Err: consensus.ErrUnknownAncestor}
	}
	if ctx == nil {
		ctx = new(Context)
	}
	for _, rule := range rs.rules {
		if err := rule.Validate(header, parent, ctx); err != nil {
			f, ok := err.(*Failure)
			if !ok {
				f = fail(rule, err, nil, nil)
			}
			f.RuleSet = rs.name
			return f
		}
	}
	return nil
}
