// Package coordinator is the only writer of a role's permission matrix and its
// normalized RolePermission rows.
//
// Every change runs in one database transaction: the role is loaded (row locked where
// the engine supports it), a copy of the matrix is changed, the matrix is stored with a
// version check, and the rows are regenerated from the new matrix. A failed row write
// rolls the whole transaction back, so readers never observe a matrix that disagrees
// with the rows. Calls for the same role are additionally serialized in process.
package coordinator
