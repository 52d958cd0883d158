package query

import (
	"fmt"
	"strings"
)

// state is the position of a Query in its clause chain.
type state int

const (
	stateEmpty state = iota
	stateSelected
	stateFromBound
	stateInsertBound
	stateValuesSet
	stateUpdateBound
	stateSetDone
	stateDeleteBound
	stateWhereDone
	stateLikeDone
)

var stateNames = [...]string{
	stateEmpty:       "EMPTY",
	stateSelected:    "SELECTED",
	stateFromBound:   "FROM_BOUND",
	stateInsertBound: "INSERT_BOUND",
	stateValuesSet:   "VALUES_SET",
	stateUpdateBound: "UPDATE_BOUND",
	stateSetDone:     "SET_DONE",
	stateDeleteBound: "DELETE_BOUND",
	stateWhereDone:   "WHERE_DONE",
	stateLikeDone:    "LIKE_DONE",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// runnable reports whether a chain ending in s forms a complete statement.
func (s state) runnable() bool {
	switch s {
	case stateFromBound, stateValuesSet, stateSetDone, stateDeleteBound, stateWhereDone, stateLikeDone:
		return true
	default:
		return false
	}
}

// clause is one chained builder call.
type clause int

const (
	clauseSelect clause = iota
	clauseFrom
	clauseInsertInto
	clauseValues
	clauseUpdate
	clauseSet
	clauseDeleteFrom
	clauseWhere
	clauseLike
)

var clauseNames = [...]string{
	clauseSelect:     "SELECT",
	clauseFrom:       "FROM",
	clauseInsertInto: "INSERT_INTO",
	clauseValues:     "VALUES",
	clauseUpdate:     "UPDATE",
	clauseSet:        "SET",
	clauseDeleteFrom: "DELETE_FROM",
	clauseWhere:      "WHERE",
	clauseLike:       "LIKE",
}

func (c clause) String() string {
	if int(c) < len(clauseNames) {
		return clauseNames[c]
	}
	return fmt.Sprintf("clause(%d)", int(c))
}

// transitions lists every legal (state, clause) pair and the state it leads to.
var transitions = map[state]map[clause]state{
	stateEmpty: {
		clauseSelect:     stateSelected,
		clauseInsertInto: stateInsertBound,
		clauseUpdate:     stateUpdateBound,
		clauseDeleteFrom: stateDeleteBound,
	},
	stateSelected:    {clauseFrom: stateFromBound},
	stateFromBound:   {clauseWhere: stateWhereDone},
	stateInsertBound: {clauseValues: stateValuesSet},
	stateUpdateBound: {clauseSet: stateSetDone},
	stateSetDone:     {clauseWhere: stateWhereDone},
	stateDeleteBound: {clauseWhere: stateWhereDone},
	stateWhereDone:   {clauseLike: stateLikeDone},
}

// next returns the state reached by applying c in s.
func (s state) next(c clause) (state, error) {
	if to, ok := transitions[s][c]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s cannot follow %s (allowed after: %s)",
		ErrSequence, c, s, strings.Join(predecessors(c), ", "))
}

// predecessors lists the states from which c is legal, for error messages.
func predecessors(c clause) []string {
	var names []string
	for from := stateEmpty; from <= stateLikeDone; from++ {
		if _, ok := transitions[from][c]; ok {
			names = append(names, from.String())
		}
	}
	return names
}
