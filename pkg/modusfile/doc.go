// SPDX-License-Identifier: MPL-2.0

// Package modusfile parses Modusfiles into a kind-checked clause Database.
//
// A Modusfile is a list of Horn clauses:
//
//	install_python(img, py) :-
//	    string_concat("ubuntu:", tag, img),
//	    version_geq(tag, "16.04"),
//	    from(img),
//	    run(f"apt-get install -y python${py}").
//
// Every user predicate is assigned one kind (image, layer or logical) from the
// built-ins it reaches. Parse performs no I/O.
package modusfile
