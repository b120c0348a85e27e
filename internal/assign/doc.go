// Package assign solves the linear assignment problem exactly.
//
// The balancer expands every cluster into capacity-many slots and asks this
// package for the minimum-cost bijection between points and slots.
package assign
