// Package route orders the stops of one delivery group into a round trip
// from the depot.
//
// OSRM uses the OSRM Trip service. NearestNeighbor solves the same problem
// offline over great-circle distances. Itinerary turns either result into
// the stop list handed to a driver.
package route
