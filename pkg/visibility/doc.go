// Package visibility filters the normalized graph down to what the user
// asked to see while preserving directed reachability: edges through hidden
// entities are replaced by synthetic non-causal edges between the visible
// endpoints, so a filtered view never lies about connectivity.
package visibility
