package rules

import (
	"encoding/json"
	"fmt"
)

// Wire shape, preserved bit-for-bit for persisted shelves:
//
//	Rule      := {"field": "...", "operator": "...", "value": scalar|array|null}
//	GroupRule := {"join_type": "AND"|"OR", "rules": [Rule|GroupRule, ...]}

type serializableGroup struct {
	JoinType JoinType          `json:"join_type"`
	Rules    []json.RawMessage `json:"rules"`
}

// ParseGroup decodes a persisted rule tree. The root of a shelf filter is
// always a group.
func ParseGroup(data []byte) (*GroupRule, error) {
	var group GroupRule
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (g *GroupRule) MarshalJSON() ([]byte, error) {
	sg := serializableGroup{
		JoinType: g.JoinType,
		// Always serialize as an array, never null.
		Rules: make([]json.RawMessage, 0, len(g.Rules)),
	}
	for i, child := range g.Rules {
		raw, err := json.Marshal(child)
		if err != nil {
			return nil, fmt.Errorf("cannot serialize rule %d: %w", i, err)
		}
		sg.Rules = append(sg.Rules, raw)
	}
	return json.Marshal(sg)
}

func (g *GroupRule) UnmarshalJSON(data []byte) error {
	var sg serializableGroup
	if err := json.Unmarshal(data, &sg); err != nil {
		return err
	}
	g.JoinType = sg.JoinType
	g.Rules = make([]Node, 0, len(sg.Rules))
	for i, raw := range sg.Rules {
		node, err := unmarshalNode(raw)
		if err != nil {
			return fmt.Errorf("cannot deserialize rule %d: %w", i, err)
		}
		g.Rules = append(g.Rules, node)
	}
	return nil
}

// unmarshalNode decides between a leaf and a nested group by probing for
// the group-only keys. A leaf never carries "join_type" or "rules".
func unmarshalNode(data json.RawMessage) (Node, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	_, hasJoin := probe["join_type"]
	_, hasRules := probe["rules"]
	if hasJoin || hasRules {
		var group GroupRule
		if err := json.Unmarshal(data, &group); err != nil {
			return nil, err
		}
		return &group, nil
	}
	var rule Rule
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}
