/*

Process of compilation

Program Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	analyze (collate lines) ->
Ordered Program (ast) ->
	front (lower) ->
Routine Operations (ir) ->
	back ->
Assembly Text ->
	asm ->
Binary Object (obj) ->
	link ->
Binary Executable

*/
package compiler
