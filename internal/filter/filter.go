// Package filter models list filters as a small predicate tree. A tree
// translates to a DynamoDB condition expression for querying, and evaluates
// directly against attribute maps with the same semantics the store applies.
package filter

import (
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// Node is one predicate. Condition renders it for the store; Matches mirrors
// the store's evaluation in memory.
type Node interface {
	Condition() expression.ConditionBuilder
	Matches(attrs map[string]any) bool
}

type equalsNode struct {
	name  string
	value string
}

type containsNode struct {
	name  string
	value string
}

type inNode struct {
	name   string
	values []string
}

type andNode struct {
	children []Node
}

type orNode struct {
	children []Node
}

// Equals matches records whose attribute equals value.
func Equals(name, value string) Node {
	return equalsNode{name: name, value: value}
}

// Contains matches when the attribute is a string containing value as a
// substring, or a list containing value as a member.
func Contains(name, value string) Node {
	return containsNode{name: name, value: value}
}

// In matches when the attribute value equals one of the given values. Note
// that a list-valued attribute is compared as a whole, never member-wise.
// With no values it yields nil.
func In(name string, values ...string) Node {
	if len(values) == 0 {
		return nil
	}
	return inNode{name: name, values: values}
}

// And combines predicates conjunctively. Nil children are dropped; zero
// remaining children yields nil and a single child is returned unwrapped.
func And(children ...Node) Node {
	kept := compact(children)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return andNode{children: kept}
}

// Or combines predicates disjunctively, with the same collapsing as And.
func Or(children ...Node) Node {
	kept := compact(children)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return orNode{children: kept}
}

func compact(children []Node) []Node {
	kept := make([]Node, 0, len(children))
	for _, child := range children {
		if child != nil {
			kept = append(kept, child)
		}
	}
	return kept
}

func (n equalsNode) Condition() expression.ConditionBuilder {
	return expression.Name(n.name).Equal(expression.Value(n.value))
}

func (n equalsNode) Matches(attrs map[string]any) bool {
	value, ok := attrs[n.name].(string)
	return ok && value == n.value
}

func (n containsNode) Condition() expression.ConditionBuilder {
	return expression.Name(n.name).Contains(n.value)
}

func (n containsNode) Matches(attrs map[string]any) bool {
	switch value := attrs[n.name].(type) {
	case string:
		return strings.Contains(value, n.value)
	case []string:
		return slices.Contains(value, n.value)
	}
	return false
}

func (n inNode) Condition() expression.ConditionBuilder {
	operands := make([]expression.OperandBuilder, 0, len(n.values))
	for _, value := range n.values {
		operands = append(operands, expression.Value(value))
	}
	return expression.Name(n.name).In(operands[0], operands[1:]...)
}

func (n inNode) Matches(attrs map[string]any) bool {
	value, ok := attrs[n.name].(string)
	if !ok {
		return false
	}
	return slices.Contains(n.values, value)
}

func (n andNode) Condition() expression.ConditionBuilder {
	conds := conditions(n.children)
	return expression.And(conds[0], conds[1], conds[2:]...)
}

func (n andNode) Matches(attrs map[string]any) bool {
	for _, child := range n.children {
		if !child.Matches(attrs) {
			return false
		}
	}
	return true
}

func (n orNode) Condition() expression.ConditionBuilder {
	conds := conditions(n.children)
	return expression.Or(conds[0], conds[1], conds[2:]...)
}

func (n orNode) Matches(attrs map[string]any) bool {
	for _, child := range n.children {
		if child.Matches(attrs) {
			return true
		}
	}
	return false
}

func conditions(children []Node) []expression.ConditionBuilder {
	conds := make([]expression.ConditionBuilder, 0, len(children))
	for _, child := range children {
		conds = append(conds, child.Condition())
	}
	return conds
}
