/*
	Package ndtex provides types, constants, and functions that have no other dependencies
	and can be used by all packages within ndtex.  This includes the closed set of numeric
	element kinds, byte order handling, the error taxonomy, leveled logging, data
	serialization, and command string handling.  Since these elements are used by the
	array, decoder and atlas layers, we separate them here.
*/
package ndtex
