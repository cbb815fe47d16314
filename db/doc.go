/*

Package db is the filesystem storage engine for nixbase.

Every entity is a directory.  Its scalar attributes live in a YAML
side file named "attributes"; its owned children live in named
sub-directories ("collections"); references to entities it does not
own are symbolic links.

On-disk layout:

- <root>/attributes: header (format, version, created_at, updated_at)
- <root>/data/<block>: blocks, each holding sources/, data_arrays/,
	tags/, multi_tags/ and groups/
- <root>/metadata/<section>: root sections, each holding sections/ and
	properties/
- data_arrays/<name>/dimensions/<n>: dimension n, counting from 1
- data_arrays/<name>/data: msgpack payload
- properties/<name>/values: msgpack value list
- .../sources/<id>, .../references/<id>: reference links named by the
	id of their target
- groups/<name>/{data_arrays,tags,multi_tags}/<id>: group members
- tags/<name>/features/<id>: features, keyed by their own id
- metadata, positions, extents, data: single links; the target's id
	is recorded in the owner's attributes as <link>_id

Entries whose names start with "." are staging entries and are never
listed.

Directory and Attributes are usable on their own; File is the entry
point for everything else.

*/

package db
