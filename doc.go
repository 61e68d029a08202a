/*
Package rtable contains an immutable, sorted table format with a
forward-only read path. Keys are internal keys, a user key followed by
an 8-byte sequence number and kind trailer, ordered by a pluggable Comparer.

Data Structure Documentation

Table

A table contains a data region of records followed by a properties
block and a table footer. The data region starts at offset 0.

    Table layout:
    +----------+---------+----------+------------------+--------------+
    | record 1 |   ...   | record n | properties block | table footer |
    +----------+---------+----------+------------------+--------------+

    Properties block:
    +----------------------+---------------------+------------------------+--------------------------+-------------------------------+-----------------------+
    | num entries (varint) | data size (varint)  | raw key size (varint)  | raw value size (varint)  | comparer name len (varint)    | comparer name (varlen)|
    +----------------------+---------------------+------------------------+--------------------------+-------------------------------+-----------------------+

    Table footer:
    +-----------------------------+------------------+
    | properties offset (8 bytes) |  magic (8 bytes) |
    +-----------------------------+------------------+

Record

Records are stored back to back, without padding. Each record only
yields the position of its successor, so tables can only be scanned
forwards.

    +---------------------+-----------------+-----------------------+-------------------+
    | key len (4 bytes)   | key (varlen)    | value len (4 bytes)   | value (varlen)    |
    +---------------------+-----------------+-----------------------+-------------------+

All fixed-width integers are little-endian. Fixed-width numeric fields
embedded in keys, such as bounding box coordinates, can be addressed with
Fixed32Element. Spatial queries over such fields are not implemented; lookups
are linear scans in key order.
*/
package rtable
