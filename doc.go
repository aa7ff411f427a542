/*
Package geoblock contains the storage core of an append-only, spatially
indexed data engine.

Rows of (point, value) pairs are grouped into data blocks which are appended
to a data store. For every block, its bounding range and row count are
appended to a separate range log so that candidate blocks can be selected
without decoding rows. Rows are deleted by clearing their bit in the block's
liveness bitfield; blocks are never resized or moved. DataMerge rewrites the
live rows of several blocks into a single new block.

Data Structure Documentation

Data Store

A data store is a sequence of data blocks, addressed by their byte offset.

    Data store layout:
    +---------+---------+---------+
    | block 1 |   ...   | block n |
    +---------+---------+---------+

Block

A block starts with a header and a liveness bitfield, followed by the
encoded rows in append order. All integers are big-endian. Bit i of the
bitfield (least significant bit first within each byte) is set while row i
is live.

    Block layout:
    +----------------------+--------------------------+------------------------------+-------+-----+-------+
    | block len (4 bytes)  | bitfield len (2 bytes)   | bitfield (ceil(rows/8) bytes) | row 1 | ... | row n |
    +----------------------+--------------------------+------------------------------+-------+-----+-------+

    Row:
    +----------------------+----------------------+
    | point (self-sized)   | value (self-sized)   |
    +----------------------+----------------------+

Range Log

The range log is a sequence of length-prefixed entries, one per block.

    Range entry:
    +-----------------------+------------------------+----------------+-----------------------+
    | entry len (4 bytes)   | block offset (8 bytes) | range (varlen) | row count (8 bytes)   |
    +-----------------------+------------------------+----------------+-----------------------+

The storage sub-package provides the random access backends and a block
cache which can be placed between a data store and its backend.
*/
package geoblock
