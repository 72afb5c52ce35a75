package rules

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate reports every structural problem in the tree: unknown field,
// operator or join-type values. It is advisory — the evaluator stays
// fail-closed on trees that were never validated — and is meant for the
// editing surface, where all findings should be reported at once.
func (g *GroupRule) Validate() error {
	var result *multierror.Error
	validateGroup(g, "", &result)
	return result.ErrorOrNil()
}

func validateGroup(g *GroupRule, path string, result **multierror.Error) {
	if !g.JoinType.IsValid() {
		*result = multierror.Append(*result, fmt.Errorf("%s: unknown join type %q", at(path), g.JoinType))
	}
	for i, child := range g.Rules {
		childPath := fmt.Sprintf("%s.rules[%d]", path, i)
		switch node := child.(type) {
		case *GroupRule:
			validateGroup(node, childPath, result)
		case *Rule:
			if !node.Field.IsValid() {
				*result = multierror.Append(*result, fmt.Errorf("%s: unknown field %q", at(childPath), node.Field))
			}
			if !node.Operator.IsValid() {
				*result = multierror.Append(*result, fmt.Errorf("%s: unknown operator %q", at(childPath), node.Operator))
			}
		default:
			*result = multierror.Append(*result, fmt.Errorf("%s: unsupported node type %T", at(childPath), child))
		}
	}
}

func at(path string) string {
	if path == "" {
		return "root"
	}
	return "root" + path
}
