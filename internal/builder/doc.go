/*
Package builder turns a format-agnostic pipeline definition (a config.Model)
into steps and connectors on a workflow controller.

The construction is a multi-phase process:

 1. Step Creation: every step block becomes a plugin instance with its options
    applied, wrapped in a pipeline step and placed on the canvas, either at its
    declared position or at the next free insert point.

 2. Linking: each declared input becomes a connector. Connectors go through the
    controller, so the pipeline graph applies the same arity and cycle checks
    an interactive edit would.

 3. Detector Selection: batch-detector steps get their detectors selected and
    are expanded when the definition asks for it.

 4. Validation: the finished graph is checked for cycles once more.
*/
package builder
