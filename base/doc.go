/*

Package base provides base functions for mtlprep.

The base functions include:

* Delimited Line Reader

* Cell Escaping

* Seeded Random Generator

*/
package base
