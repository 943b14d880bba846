// Package harness provides conformance testing for querykit query plans.
//
// The harness loads an entity schema, stores fixture rows, executes query
// steps and checks each outcome against its expect clause.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: sortTest
//	description: "What this scenario validates"
//	schema: schema            # directory of CUE entity files
//	fixtures:
//	  - entity: Member
//	    rows:
//	      - {username: member5, age: 100}
//	      - {username: null, age: 100}
//	steps:
//	  - name: sort
//	    query:
//	      source: Member
//	      where:
//	        - {field: age, eq: 100}
//	      order_by:
//	        - {field: username, dir: asc, nulls: last}
//	    expect:
//	      column: username
//	      values: [member5, null]
//
// Queries use the queryfile format.
//
// # Expectations
//
//   - rows: the returned rows, exactly and in order
//   - column/values: one field of every returned row, in order
//   - count: the result of a count fetch
//   - total: the total count of a results fetch
//   - error: the QueryError code of a failed step
//
// # Cross-checking
//
// Every step runs against a fresh in-memory SQLite database and against
// store.Memory holding the same rows. The two outcomes must be identical;
// a difference is reported as a failure even when the expectation holds.
//
// # Deterministic Testing
//
// Executions use a fixed query ID (scenario.query_id, default
// "test-query-default") and fixture ids are assigned in insertion order,
// so traces are identical across runs and can be compared against golden
// files with RunWithGolden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/sortTest.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
