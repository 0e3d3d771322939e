// Package workload turns a YAML file of demo task specs into running
// tasks: each spec becomes a child in the process table that writes its
// lines through the console and exits with its configured status. The
// runner reaps those children and can watch the file for appended specs.
package workload
