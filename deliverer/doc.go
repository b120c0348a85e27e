// Package deliverer records which locations are assigned to which driver.
//
// Three stores are provided: MemoryStore for tests and single-process use,
// DynamoStore on a single DynamoDB table, and SQLStore on DuckDB.
// AssignPlan hands the groups of a plan to named deliverers.
package deliverer
